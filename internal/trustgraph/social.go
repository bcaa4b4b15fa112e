package trustgraph

// ClusterConfidenceThreshold is the minimum edge confidence used to group
// nodes into clusters.
const ClusterConfidenceThreshold = 0.7

// NodeStat is one node's summary within the social graph.
type NodeStat struct {
	Node       string
	Degree     int // in + out, non-revoked edges
	Centrality int // count of simple length<=2 paths through this node
}

// SocialGraph is the result of BuildSocialGraph.
type SocialGraph struct {
	Nodes      []NodeStat
	Edges      []*Edge
	Clusters   [][]string // connected components over confidence>=threshold edges
	TotalNodes int
	TotalEdges int
	AvgDegree  float64
}

// BuildSocialGraph enumerates every edge, computes per-node degree and a
// centrality proxy (count of simple paths of length <= 2 through the
// node), and detects clusters as connected components over edges with
// confidence >= ClusterConfidenceThreshold.
func (g *Graph) BuildSocialGraph() SocialGraph {
	edges := g.Edges()

	degree := map[string]int{}
	adjAll := map[string]map[string]bool{} // undirected adjacency, any confidence
	adjStrong := map[string]map[string]bool{}

	addAdj := func(m map[string]map[string]bool, a, b string) {
		if m[a] == nil {
			m[a] = map[string]bool{}
		}
		if m[b] == nil {
			m[b] = map[string]bool{}
		}
		m[a][b] = true
		m[b][a] = true
	}

	for _, e := range edges {
		degree[e.From]++
		degree[e.To]++
		addAdj(adjAll, e.From, e.To)
		if e.Confidence >= ClusterConfidenceThreshold {
			addAdj(adjStrong, e.From, e.To)
		}
	}

	nodeSet := map[string]bool{}
	for n := range degree {
		nodeSet[n] = true
	}

	nodes := make([]NodeStat, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, NodeStat{
			Node:       n,
			Degree:     degree[n],
			Centrality: centralityProxy(adjAll, n),
		})
	}

	clusters := connectedComponents(adjStrong, nodeSet)

	var totalDegree int
	for _, n := range nodes {
		totalDegree += n.Degree
	}
	avg := 0.0
	if len(nodes) > 0 {
		avg = float64(totalDegree) / float64(len(nodes))
	}

	return SocialGraph{
		Nodes:      nodes,
		Edges:      edges,
		Clusters:   clusters,
		TotalNodes: len(nodes),
		TotalEdges: len(edges),
		AvgDegree:  avg,
	}
}

// centralityProxy counts simple paths of length <= 2 through node: its
// direct neighbors plus, for each pair of distinct neighbors, one path of
// length 2 routed through node.
func centralityProxy(adj map[string]map[string]bool, node string) int {
	neighbors := adj[node]
	count := len(neighbors)

	neighborList := make([]string, 0, len(neighbors))
	for n := range neighbors {
		neighborList = append(neighborList, n)
	}
	for i := 0; i < len(neighborList); i++ {
		for j := i + 1; j < len(neighborList); j++ {
			count++
		}
	}
	return count
}

// connectedComponents returns the connected components of adj restricted
// to nodes present in nodeSet. Components with a single node are left out,
// so isolated nodes appear in no cluster.
func connectedComponents(adj map[string]map[string]bool, nodeSet map[string]bool) [][]string {
	visited := map[string]bool{}
	var components [][]string

	for n := range nodeSet {
		if visited[n] {
			continue
		}
		var comp []string
		stack := []string{n}
		visited[n] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, cur)
			for neighbor := range adj[cur] {
				if !visited[neighbor] {
					visited[neighbor] = true
					stack = append(stack, neighbor)
				}
			}
		}
		if len(comp) > 1 {
			components = append(components, comp)
		}
	}
	return components
}
