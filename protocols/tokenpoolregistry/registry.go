package tokenpoolregistry

import "github.com/ethereum/go-ethereum/common"

// TokenPoolRegistryView is a snapshot of the token graph. Every pool links
// each pair of its tokens with an edge in both directions.
type TokenPoolRegistryView struct {
	Tokens      []common.Address `json:"tokens"`
	Pools       []common.Address `json:"pools"`
	Adjacency   [][]int          `json:"adjacency"`
	EdgeTargets []int            `json:"edgeTargets"`
	EdgePools   [][]int          `json:"edgePools"`
}

// TokenPoolRegistry is a non-thread-safe graph of which pools connect which tokens.
type TokenPoolRegistry struct {
	tokenToIndex map[common.Address]int
	poolToIndex  map[common.Address]int

	tokens      []common.Address
	pools       []common.Address
	adjacency   [][]int
	edgeTargets []int
	edgePools   [][]int
}

// NewTokenPoolRegistry creates an empty registry.
func NewTokenPoolRegistry() *TokenPoolRegistry {
	return &TokenPoolRegistry{
		tokenToIndex: make(map[common.Address]int),
		poolToIndex:  make(map[common.Address]int),
		tokens:       make([]common.Address, 0),
		pools:        make([]common.Address, 0),
		adjacency:    make([][]int, 0),
		edgeTargets:  make([]int, 0),
		edgePools:    make([][]int, 0),
	}
}

func (r *TokenPoolRegistry) tokenIndex(token common.Address) int {
	idx, ok := r.tokenToIndex[token]
	if !ok {
		idx = len(r.tokens)
		r.tokens = append(r.tokens, token)
		r.adjacency = append(r.adjacency, nil)
		r.tokenToIndex[token] = idx
	}
	return idx
}

func (r *TokenPoolRegistry) poolIndex(pool common.Address) int {
	idx, ok := r.poolToIndex[pool]
	if !ok {
		idx = len(r.pools)
		r.pools = append(r.pools, pool)
		r.poolToIndex[pool] = idx
	}
	return idx
}

// findEdge returns the index of the edge from -> to, or -1.
func (r *TokenPoolRegistry) findEdge(from, to int) int {
	for _, edge := range r.adjacency[from] {
		if r.edgeTargets[edge] == to {
			return edge
		}
	}
	return -1
}

// addEdge creates or extends the directed edge from -> to with pool.
func (r *TokenPoolRegistry) addEdge(from, to, pool int) {
	edge := r.findEdge(from, to)
	if edge == -1 {
		edge = len(r.edgeTargets)
		r.edgeTargets = append(r.edgeTargets, to)
		r.edgePools = append(r.edgePools, nil)
		r.adjacency[from] = append(r.adjacency[from], edge)
	}
	for _, p := range r.edgePools[edge] {
		if p == pool {
			return
		}
	}
	r.edgePools[edge] = append(r.edgePools[edge], pool)
}

// add links every pair of tokens through pool. Adding a known pool again is a no-op.
func (r *TokenPoolRegistry) add(tokens []common.Address, pool common.Address) {
	if _, known := r.poolToIndex[pool]; known {
		return
	}
	poolIdx := r.poolIndex(pool)
	indices := make([]int, len(tokens))
	for i, token := range tokens {
		indices[i] = r.tokenIndex(token)
	}
	for i, from := range indices {
		for j, to := range indices {
			if i == j || from == to {
				continue
			}
			r.addEdge(from, to, poolIdx)
		}
	}
}

func (r *TokenPoolRegistry) poolsForToken(token common.Address) []common.Address {
	tokenIdx, exists := r.tokenToIndex[token]
	if !exists {
		return nil
	}
	seen := make(map[int]struct{})
	var pools []common.Address
	for _, edge := range r.adjacency[tokenIdx] {
		for _, poolIdx := range r.edgePools[edge] {
			if _, dup := seen[poolIdx]; dup {
				continue
			}
			seen[poolIdx] = struct{}{}
			pools = append(pools, r.pools[poolIdx])
		}
	}
	return pools
}

func (r *TokenPoolRegistry) poolsForPair(a, b common.Address) []common.Address {
	from, ok := r.tokenToIndex[a]
	if !ok {
		return nil
	}
	to, ok := r.tokenToIndex[b]
	if !ok {
		return nil
	}
	edge := r.findEdge(from, to)
	if edge == -1 {
		return nil
	}
	pools := make([]common.Address, len(r.edgePools[edge]))
	for i, poolIdx := range r.edgePools[edge] {
		pools[i] = r.pools[poolIdx]
	}
	return pools
}

func (r *TokenPoolRegistry) view() *TokenPoolRegistryView {
	return copyView(&TokenPoolRegistryView{
		Tokens:      r.tokens,
		Pools:       r.pools,
		Adjacency:   r.adjacency,
		EdgeTargets: r.edgeTargets,
		EdgePools:   r.edgePools,
	})
}

// copyView returns a view with its own memory for every slice.
func copyView(v *TokenPoolRegistryView) *TokenPoolRegistryView {
	if v == nil {
		return &TokenPoolRegistryView{}
	}
	out := &TokenPoolRegistryView{
		Tokens:      append(make([]common.Address, 0, len(v.Tokens)), v.Tokens...),
		Pools:       append(make([]common.Address, 0, len(v.Pools)), v.Pools...),
		EdgeTargets: append(make([]int, 0, len(v.EdgeTargets)), v.EdgeTargets...),
		Adjacency:   make([][]int, len(v.Adjacency)),
		EdgePools:   make([][]int, len(v.EdgePools)),
	}
	for i, adj := range v.Adjacency {
		if adj != nil {
			out.Adjacency[i] = append(make([]int, 0, len(adj)), adj...)
		}
	}
	for i, pools := range v.EdgePools {
		if pools != nil {
			out.EdgePools[i] = append(make([]int, 0, len(pools)), pools...)
		}
	}
	return out
}
