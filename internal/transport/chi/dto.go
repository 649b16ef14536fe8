package chi

import (
	dombatch "github.com/kailas-cloud/ragcore/internal/domain/batch"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/search/mode"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
	"github.com/kailas-cloud/ragcore/internal/usecase/rag"
)

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Query     string           `json:"query" validate:"required,max=4096"`
	SessionID string           `json:"session_id" validate:"max=128"`
	Location  *LocationRequest `json:"location"`
}

// LocationRequest is an optional geospatial hint. The coordinates are used
// when no address is given.
type LocationRequest struct {
	Address string  `json:"address" validate:"max=256"`
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (l *LocationRequest) toDomain() rag.Location {
	return rag.Location{Address: l.Address, Lat: l.Lat, Lon: l.Lon}
}

// DocumentRequest is one document of POST /v1/documents.
type DocumentRequest struct {
	ID       string         `json:"id" validate:"max=256"`
	Content  string         `json:"content" validate:"required"`
	Metadata map[string]any `json:"metadata"`
}

// AddDocumentsRequest is the body of POST /v1/documents.
type AddDocumentsRequest struct {
	Documents []DocumentRequest `json:"documents" validate:"required,min=1,max=1000,dive"`
}

func (r *AddDocumentsRequest) toRecords() []ingest.Record {
	out := make([]ingest.Record, len(r.Documents))
	for i, d := range r.Documents {
		out[i] = ingest.Record{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
	}
	return out
}

// AddDocumentsResponse summarizes an ingestion request.
type AddDocumentsResponse struct {
	Read     int               `json:"read"`
	Added    int               `json:"added"`
	Skipped  int               `json:"skipped"`
	Invalid  int               `json:"invalid"`
	Problems []ProblemResponse `json:"problems,omitempty"`
}

// ProblemResponse describes one rejected or failed document.
type ProblemResponse struct {
	Record int                 `json:"record"`
	ID     string              `json:"id,omitempty"`
	Status dombatch.ItemStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

func addDocumentsResponse(rep *ingest.Report) AddDocumentsResponse {
	resp := AddDocumentsResponse{
		Read:    rep.Read,
		Added:   rep.Added,
		Skipped: rep.Skipped,
		Invalid: rep.Invalid,
	}
	for _, p := range rep.Problems {
		pr := ProblemResponse{Record: p.Record(), ID: p.ID(), Status: p.Status()}
		if p.Err() != nil {
			if p.Status() == dombatch.StatusInvalid {
				pr.Error = p.Err().Error()
			} else {
				pr.Error = safeDomainMessage(p.Err())
			}
		}
		resp.Problems = append(resp.Problems, pr)
	}
	return resp
}

// SearchRequest is the body of POST /v1/search. Zero values take the server defaults.
type SearchRequest struct {
	Query        string         `json:"query" validate:"required,max=4096"`
	K            int            `json:"k" validate:"omitempty,min=1,max=100"`
	Mode         mode.Mode      `json:"mode" validate:"omitempty,oneof=semantic hybrid rerank"`
	Alpha        *float64       `json:"alpha" validate:"omitempty,gte=0,lte=1"`
	RerankFactor int            `json:"rerank_factor" validate:"omitempty,min=1,max=10"`
	Filter       map[string]any `json:"filter"`
}

// SearchResponse lists ranked results.
type SearchResponse struct {
	Results []ResultResponse `json:"results"`
	Count   int              `json:"count"`
}

// ResultResponse is one ranked document.
type ResultResponse struct {
	ID       string          `json:"id"`
	Content  string          `json:"content"`
	Metadata domdoc.Metadata `json:"metadata,omitempty"`
	Score    float64         `json:"score"`
	Rank     int             `json:"rank"`
}

func searchResponse(results []result.Result) SearchResponse {
	items := make([]ResultResponse, len(results))
	for i := range results {
		doc := results[i].Document()
		items[i] = ResultResponse{
			ID:       doc.ID(),
			Content:  doc.Content(),
			Metadata: doc.Metadata(),
			Score:    results[i].Score(),
			Rank:     results[i].Rank(),
		}
	}
	return SearchResponse{Results: items, Count: len(items)}
}

// DocumentResponse is a stored document without its embedding.
type DocumentResponse struct {
	ID       string          `json:"id"`
	Content  string          `json:"content"`
	Metadata domdoc.Metadata `json:"metadata,omitempty"`
}

func documentResponse(doc *domdoc.Document) DocumentResponse {
	return DocumentResponse{ID: doc.ID(), Content: doc.Content(), Metadata: doc.Metadata()}
}

// SaveResponse confirms a snapshot write.
type SaveResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}
