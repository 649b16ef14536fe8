// Package graph serves chatbot context from an in-memory knowledge graph
// loaded from a YAML file.
package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domgraph "github.com/kailas-cloud/ragcore/internal/domain/graph"
)

// Traversal limits.
const (
	MaxRelated  = 20
	RelatedHops = 2
	MaxPathHops = 4
)

// Entity is a graph node as stored in the file.
type Entity struct {
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// Relationship is an edge as stored in the file. Traversal ignores direction.
type Relationship struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
}

type fileFormat struct {
	Entities      []Entity       `yaml:"entities"`
	Relationships []Relationship `yaml:"relationships"`
}

type edge struct {
	to  string
	typ string
}

// Graph is an immutable knowledge graph keyed by lower-cased entity name.
type Graph struct {
	nodes map[string]Entity
	adj   map[string][]edge
}

// New builds a graph. Relationships with an unknown endpoint are dropped.
func New(entities []Entity, relationships []Relationship) *Graph {
	g := &Graph{
		nodes: make(map[string]Entity, len(entities)),
		adj:   make(map[string][]edge),
	}
	for _, e := range entities {
		g.nodes[key(e.Name)] = e
	}
	for _, r := range relationships {
		s, t := key(r.Source), key(r.Target)
		if _, ok := g.nodes[s]; !ok {
			continue
		}
		if _, ok := g.nodes[t]; !ok {
			continue
		}
		g.adj[s] = append(g.adj[s], edge{to: t, typ: r.Type})
		g.adj[t] = append(g.adj[t], edge{to: s, typ: r.Type})
	}
	return g
}

// Load reads a graph file. A missing file yields an empty graph.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, domain.NewSerializationError(path, err)
	}
	return New(f.Entities, f.Relationships), nil
}

// Len returns the number of entities.
func (g *Graph) Len() int { return len(g.nodes) }

// QueryForChatbot returns graph facts about the named entities.
func (g *Graph) QueryForChatbot(ctx context.Context, names []string, mode domgraph.Mode) ([]domgraph.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewExternalServiceError("graph", err)
	}

	switch mode {
	case domgraph.Related:
		return g.related(names), nil
	case domgraph.Direct:
		return g.direct(names), nil
	case domgraph.Path:
		return g.path(names), nil
	default:
		return nil, fmt.Errorf("%w: unknown graph mode %q", domain.ErrInvalidRequest, mode)
	}
}

func (g *Graph) direct(names []string) []domgraph.Fact {
	var out []domgraph.Fact
	seen := make(map[string]struct{})
	for _, n := range names {
		k := key(n)
		if _, ok := g.nodes[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		types := make(map[string]struct{})
		for _, e := range g.adj[k] {
			types[e.typ] = struct{}{}
		}
		out = append(out, g.fact(k, types))
	}
	return out
}

// related runs a multi-source BFS and returns nodes 1..RelatedHops away,
// each with the relationship types it was reached through.
func (g *Graph) related(names []string) []domgraph.Fact {
	dist := make(map[string]int)
	var frontier []string
	for _, n := range names {
		k := key(n)
		if _, ok := g.nodes[k]; !ok {
			continue
		}
		if _, ok := dist[k]; ok {
			continue
		}
		dist[k] = 0
		frontier = append(frontier, k)
	}

	via := make(map[string]map[string]struct{})
	for hop := 1; hop <= RelatedHops && len(frontier) > 0; hop++ {
		var next []string
		for _, from := range frontier {
			for _, e := range g.adj[from] {
				d, seen := dist[e.to]
				if seen && d < hop {
					continue
				}
				if !seen {
					dist[e.to] = hop
					next = append(next, e.to)
				}
				if via[e.to] == nil {
					via[e.to] = make(map[string]struct{})
				}
				via[e.to][e.typ] = struct{}{}
			}
		}
		frontier = next
	}

	keys := make([]string, 0, len(via))
	for k := range via {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return g.nodes[keys[i]].Name < g.nodes[keys[j]].Name })
	if len(keys) > MaxRelated {
		keys = keys[:MaxRelated]
	}

	out := make([]domgraph.Fact, len(keys))
	for i, k := range keys {
		out[i] = g.fact(k, via[k])
	}
	return out
}

// path returns the nodes of the shortest path of at most MaxPathHops
// between the first two names.
func (g *Graph) path(names []string) []domgraph.Fact {
	if len(names) < 2 {
		return nil
	}
	src, dst := key(names[0]), key(names[1])
	if _, ok := g.nodes[src]; !ok {
		return nil
	}
	if _, ok := g.nodes[dst]; !ok {
		return nil
	}

	type step struct {
		prev string
		typ  string
	}
	parent := map[string]step{src: {}}
	depth := map[string]int{src: 0}
	queue := []string{src}
	for len(queue) > 0 && src != dst {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst || depth[cur] == MaxPathHops {
			continue
		}
		for _, e := range g.adj[cur] {
			if _, seen := parent[e.to]; seen {
				continue
			}
			parent[e.to] = step{prev: cur, typ: e.typ}
			depth[e.to] = depth[cur] + 1
			queue = append(queue, e.to)
		}
	}
	if _, ok := parent[dst]; !ok {
		return nil
	}

	var nodes []string
	var types []string
	for cur := dst; ; {
		nodes = append(nodes, cur)
		if cur == src {
			break
		}
		st := parent[cur]
		types = append(types, st.typ)
		cur = st.prev
	}

	// nodes runs dst..src; edge types[i] joins nodes[i] and nodes[i+1].
	out := make([]domgraph.Fact, len(nodes))
	for i := range nodes {
		adjacent := make(map[string]struct{})
		if i > 0 {
			adjacent[types[i-1]] = struct{}{}
		}
		if i < len(types) {
			adjacent[types[i]] = struct{}{}
		}
		out[len(nodes)-1-i] = g.fact(nodes[i], adjacent)
	}
	return out
}

func (g *Graph) fact(k string, types map[string]struct{}) domgraph.Fact {
	n := g.nodes[k]
	rel := make([]string, 0, len(types))
	for t := range types {
		rel = append(rel, t)
	}
	sort.Strings(rel)

	var props map[string]any
	if len(n.Properties) > 0 {
		props = make(map[string]any, len(n.Properties))
		for pk, pv := range n.Properties {
			props[pk] = pv
		}
	}
	return domgraph.Fact{Entity: n.Name, Type: n.Type, Properties: props, RelationshipTypes: rel}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
