package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
	"github.com/kailas-cloud/ragcore/internal/usecase/rag"
	searchuc "github.com/kailas-cloud/ragcore/internal/usecase/search"
	"github.com/kailas-cloud/ragcore/internal/usecase/vectorstore"
)

type mockChat struct {
	query    string
	session  string
	location *rag.Location
}

func (m *mockChat) Process(_ context.Context, query, session string) answer.Response {
	m.query, m.session = query, session
	return answer.Response{Answer: "answer for " + query, SessionID: session, Confidence: 0.7}
}

func (m *mockChat) ProcessGeospatial(
	ctx context.Context, query string, loc rag.Location, session string,
) answer.Response {
	m.location = &loc
	return m.Process(ctx, query, session)
}

type mockSearch struct {
	req     searchuc.Request
	results []result.Result
	err     error
	tokens  int
}

func (m *mockSearch) Search(ctx context.Context, req searchuc.Request) ([]result.Result, error) {
	m.req = req
	domain.UsageFromContext(ctx).AddTokens(m.tokens)
	return m.results, m.err
}

type mockIndex struct {
	docs       map[string]domdoc.Document
	persistErr error
	persisted  int
}

func (m *mockIndex) Get(id string) (domdoc.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return domdoc.Document{}, domain.ErrNotFound
	}
	return d, nil
}

func (m *mockIndex) Stats() vectorstore.Stats {
	return vectorstore.Stats{TotalDocuments: len(m.docs), IndexSize: len(m.docs), Dimension: 8, IndexType: "flat_ip"}
}

func (m *mockIndex) Persist(context.Context) error {
	m.persisted++
	return m.persistErr
}

func (m *mockIndex) Len() int { return len(m.docs) }

type mockIngest struct {
	records []ingest.Record
	report  ingest.Report
	err     error
}

func (m *mockIngest) IngestRecords(_ context.Context, records []ingest.Record) (ingest.Report, error) {
	m.records = records
	return m.report, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixture struct {
	chat   *mockChat
	search *mockSearch
	index  *mockIndex
	ingest *mockIngest
	health *mockHealth
	router http.Handler
}

func newFixture(t *testing.T, apiKeys ...string) *fixture {
	t.Helper()
	doc, err := domdoc.New("d1", "OCEANSAT-2 ocean colour", domdoc.Metadata{"title": "OCEANSAT-2"})
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	f := &fixture{
		chat:   &mockChat{},
		search: &mockSearch{},
		index:  &mockIndex{docs: map[string]domdoc.Document{"d1": doc}},
		ingest: &mockIngest{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"index": healthuc.CheckOK},
		}},
	}
	srv := NewServer(Services{
		Chat:   f.chat,
		Search: f.search,
		Index:  f.index,
		Ingest: f.ingest,
		Health: f.health,
	}, Defaults{TopK: 5, Alpha: 0.7, RerankFactor: 3}, zap.NewNop())
	f.router = srv.Router(apiKeys)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}
