package firms

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Fmazzesi/zefixtools/internal/logging"
	"github.com/Fmazzesi/zefixtools/internal/normalize"
	"github.com/Fmazzesi/zefixtools/internal/registry"
	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// Chain is the pre-order flattening of a takeover tree. Nodes[0] is the
// root with hops 0; every other node's hops is its parent's plus one.
// A firm reachable over two paths appears once per path.
type Chain struct {
	Root      models.EHRAID         `json:"root"`
	Nodes     []models.Firm         `json:"nodes"`
	Failures  []models.FetchFailure `json:"failures,omitempty"`
	Truncated int                   `json:"truncated,omitempty"` // references not followed because of max depth
}

// MaxHops returns the deepest hop count in the chain.
func (c *Chain) MaxHops() int {
	deepest := 0
	for _, n := range c.Nodes {
		if h := n.HopCount(); h > deepest {
			deepest = h
		}
	}
	return deepest
}

// treeNode is one visited position in the takeover tree.
type treeNode struct {
	ref      models.FirmRef
	hops     int
	parent   *treeNode
	raw      *registry.Firm
	err      error
	firm     models.Firm
	children []*treeNode
}

// onPath reports whether id is this node or one of its ancestors.
func (n *treeNode) onPath(id models.EHRAID) bool {
	for p := n; p != nil; p = p.parent {
		if p.ref.EHRAID == id {
			return true
		}
	}
	return false
}

// Takeovers expands the "has taken over" relation of root into a
// hop-annotated chain. Only a failure to fetch root itself is returned as
// an error; failed branches become error nodes and are listed in
// Chain.Failures.
func (s *Service) Takeovers(ctx context.Context, root models.EHRAID) (*Chain, error) {
	if root <= 0 {
		return nil, fmt.Errorf("%w: ehraid must be positive, got %d", ErrInvalidInput, root)
	}
	ctx, log := logging.StartOperation(ctx, s.logger, "takeovers")
	log.Info("takeover traversal started", "root", root)

	raw, err := s.reg.FirmDetail(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("takeovers of %s: %w", root, err)
	}
	cat := s.catalogue(ctx)

	top := &treeNode{ref: raw.Ref(), raw: raw}
	top.firm = s.takeoverRecord(ctx, top, cat)

	chain := &Chain{Root: root}
	level := []*treeNode{top}
	for len(level) > 0 {
		var next []*treeNode
		for _, n := range level {
			if n.raw == nil {
				continue
			}
			if s.maxDepth > 0 && n.hops >= s.maxDepth {
				chain.Truncated += len(n.raw.HasTakenOver)
				continue
			}
			for _, ref := range n.raw.HasTakenOver {
				child := &treeNode{ref: ref, hops: n.hops + 1, parent: n}
				switch {
				case ref.EHRAID <= 0:
					child.err = fmt.Errorf("%w: reference without ehraid", ErrInvalidInput)
				case n.onPath(ref.EHRAID):
					child.err = fmt.Errorf("%w: %s already on path", ErrCycleDetected, ref.EHRAID)
				default:
					next = append(next, child)
				}
				n.children = append(n.children, child)
			}
		}

		if err := s.fetchLevel(ctx, next, cat); err != nil {
			return nil, err
		}
		level = next
	}

	chain.Nodes, chain.Failures = flatten(top)
	if chain.Truncated > 0 {
		log.Warn("takeover chain cut at max depth", "max_depth", s.maxDepth, "skipped", chain.Truncated)
	}
	log.Info("takeover traversal finished", "root", root, "nodes", len(chain.Nodes),
		"failures", len(chain.Failures), "max_hops", chain.MaxHops())
	return chain, nil
}

// fetchLevel fetches and normalizes one level of siblings concurrently.
// Each goroutine writes only its own node.
func (s *Service) fetchLevel(ctx context.Context, nodes []*treeNode, cat normalize.Catalogue) error {
	if len(nodes) == 0 {
		return nil
	}
	log := logging.FromContext(ctx)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			raw, err := s.reg.FirmDetail(ctx, n.ref.EHRAID)
			if err != nil {
				n.err = err
				log.Warn("takeover branch failed", "ehraid", n.ref.EHRAID, "hops", n.hops, "error", err)
				return nil // non-fatal
			}
			n.raw = raw
			n.firm = s.takeoverRecord(ctx, n, cat)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("takeovers: %w", err)
	}
	return nil
}

func (s *Service) takeoverRecord(ctx context.Context, n *treeNode, cat normalize.Catalogue) models.Firm {
	f := s.norm.Normalize(ctx, n.raw, cat, normalize.TakeoverFields)
	f.Hops = models.IntPtr(n.hops)
	return f
}

// flatten walks the tree in pre-order with an explicit stack.
func flatten(root *treeNode) ([]models.Firm, []models.FetchFailure) {
	var (
		nodes    []models.Firm
		failures []models.FetchFailure
	)
	stack := []*treeNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.err != nil {
			hops := models.IntPtr(n.hops)
			nodes = append(nodes, models.Firm{
				Name:       n.ref.Name,
				EHRAID:     n.ref.EHRAID,
				LegalSeat:  n.ref.LegalSeat,
				Hops:       hops,
				FetchError: n.err.Error(),
			})
			failures = append(failures, failure(n.ref, hops, n.err))
			continue
		}
		nodes = append(nodes, n.firm)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return nodes, failures
}
