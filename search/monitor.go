package search

import (
	"github.com/poiesic/hackfind/core"
)

// RankMonitor provides hooks to observe the ranking process.
// Implement this interface to trace intermediate steps of a search.
type RankMonitor interface {
	Start(query string)
	AfterSemanticSearch(neighbors []core.Neighbor)
	AfterLexicalSearch(ids []string)
	EmbeddingFailed(err error)
	AgreementHit(id string)
	AfterMaterialization(events []*core.Event)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                        {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.Neighbor) {}
func (n *noopMonitor) AfterLexicalSearch(_ []string)         {}
func (n *noopMonitor) EmbeddingFailed(_ error)               {}
func (n *noopMonitor) AgreementHit(_ string)                 {}
func (n *noopMonitor) AfterMaterialization(_ []*core.Event)  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)         {}
