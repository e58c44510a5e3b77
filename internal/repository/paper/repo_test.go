package paper

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincatalog/catalog/internal/db"
	"github.com/fincatalog/catalog/internal/db/sqldb"
	"github.com/fincatalog/catalog/internal/domain"
	dompaper "github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/domain/query"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	s, err := sqldb.Open(sqldb.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	r := New(s)
	require.NoError(t, r.EnsureSchema(context.Background()))
	return r
}

func seed(t *testing.T, r *Repo, papers ...dompaper.Paper) {
	t.Helper()
	for i := range papers {
		p := papers[i].WithIdentity()
		_, err := r.Write(context.Background(), &p)
		require.NoError(t, err)
	}
}

func fixture() []dompaper.Paper {
	y := dompaper.IntPtr
	return []dompaper.Paper{
		{ID: "p01", Title: "Graph Neural Networks for Fraud Detection", Authors: "Smith, Lee", Year: y(2023),
			Summary: "GNN approach to card fraud", Function: "Fraud", Technique: "GNN", Industry: "Banking", Stage: "Production"},
		{ID: "p02", Title: "Transaction Monitoring with Transformers", Authors: "Garcia", Year: y(2024),
			Summary: "AML alert triage", Function: "AML", Technique: "Transformer", Industry: "Banking", Stage: "Pilot"},
		{ID: "p03", Title: "Credit Scoring via Gradient Boosting", Authors: "Chen, Wang", Year: y(2019),
			Summary: "XGBoost for thin-file borrowers", Function: "Credit Risk", Technique: "GBM", Industry: "Lending", Stage: "Production"},
		{ID: "p04", Title: "LLM Agents in Compliance", Authors: "Novak", Year: y(2025),
			Summary: "Regulatory text analysis with large language models", Function: "Compliance", Technique: "LLM", Industry: "Banking", Stage: "Research"},
		{ID: "p05", Title: "Detecting fraud rings", Authors: "O'Brien", Year: y(2021),
			Summary: "Community detection", Function: "Fraud", Technique: "GNN", Industry: "Insurance", Stage: "Pilot"},
		{ID: "p06", Title: "Churn Prediction for Retail Banking", Authors: "Ivanova", Year: y(2020),
			Summary: "Survival models", Function: "Churn", Technique: "Survival", Industry: "Banking", Stage: "Production"},
		{ID: "p07", Title: "Portfolio Optimization with RL", Authors: "Kim", Year: y(2022),
			Summary: "Deep reinforcement learning", Function: "Portfolio Optimization", Technique: "RL", Industry: "Asset Management", Stage: "Research"},
		{ID: "p08", Title: "Undated Survey of FRAUD Analytics", Authors: "Anon",
			Summary: "No year recorded", Function: "Fraud", Technique: "Survey", Industry: "Banking", Stage: "Research"},
		{ID: "p09", Title: "KYC Document Understanding", Authors: "Fraudenberg, A.", Year: y(2024),
			Summary: "OCR + NER pipeline", Function: "KYC", Technique: "NLP", Industry: "Banking", Stage: "Production"},
		{ID: "p10", Title: "100% Recall Claims", Authors: "Pérez", Year: y(2018),
			Summary: "Overfitting case study", Function: "Fraud", Technique: "GBM", Industry: "Payments", Stage: "Research"},
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.EnsureSchema(context.Background()))
	require.NoError(t, r.EnsureSchema(context.Background()))
}

func TestGet_NotFound(t *testing.T) {
	r := newRepo(t)
	_, err := r.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrPaperNotFound)
	require.ErrorIs(t, err, db.ErrRowNotFound)
	assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestGet_AllEmptyRecordIsFound(t *testing.T) {
	r := newRepo(t)
	seed(t, r, dompaper.Paper{ID: "bare"})

	p, err := r.Get(context.Background(), "bare")
	require.NoError(t, err)
	assert.Equal(t, dompaper.Paper{ID: "bare"}, p)
}

func TestWrite_RoundTripAllFields(t *testing.T) {
	r := newRepo(t)
	in := dompaper.Paper{
		ID: "full", Title: "T", Authors: "A, B", Year: dompaper.IntPtr(2022), Venue: "NeurIPS",
		Link: "https://example.org/p", DOI: "10.1/xyz", OpenAccess: dompaper.BoolPtr(true),
		Summary: "S", UseCase: "U", Dataset: "D", Model: "M", Results: "R", BusinessImpact: "B",
		Industry: "Banking", Function: "Fraud", Modality: "Tabular", Technique: "GBM", Stage: "Pilot",
		SourceEvidence: "abstract",
	}
	created, err := r.Write(context.Background(), &in)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := r.Get(context.Background(), "full")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestWrite_ReplaceIsFull(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	first := dompaper.Paper{ID: "x", Title: "Old", Venue: "ICML", Year: dompaper.IntPtr(2020), OpenAccess: dompaper.BoolPtr(false)}
	created, err := r.Write(ctx, &first)
	require.NoError(t, err)
	assert.True(t, created)

	second := dompaper.Paper{ID: "x", Title: "New"}
	created, err = r.Write(ctx, &second)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, second, got, "fields absent from the new record must be cleared")

	n, err := r.Count(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWrite_EmptyID(t *testing.T) {
	r := newRepo(t)
	_, err := r.Write(context.Background(), &dompaper.Paper{Title: "no id"})
	require.Error(t, err)
}

func TestCount_NoCriteriaMatchesAll(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	n, err := r.Count(context.Background(), query.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, len(fixture()), n)
}

func TestScan_TextQueryCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	seed(t, r, fixture()...)

	c := query.Criteria{Q: "fraud"}
	papers, err := r.Scan(ctx, c, query.DefaultOrder, 0, 0)
	require.NoError(t, err)

	ids := idsOf(papers)
	assert.ElementsMatch(t, []string{"p01", "p05", "p08", "p09"}, ids)
	for _, p := range papers {
		hay := strings.ToLower(p.Title + "|" + p.Authors + "|" + p.Summary)
		assert.Contains(t, hay, "fraud", "paper %s", p.ID)
	}

	upper, err := r.Count(ctx, query.Criteria{Q: "FRAUD"})
	require.NoError(t, err)
	assert.Equal(t, len(papers), upper)
}

func TestScan_TextQueryFoldsNonASCII(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	seed(t, r, fixture()...)
	seed(t, r, dompaper.Paper{ID: "u1", Title: "Über Fraud Models", Authors: "Ölund, Šimić", Year: dompaper.IntPtr(2022)})

	tests := []struct {
		q    string
		want []string
	}{
		{"Über", []string{"u1"}},
		{"über", []string{"u1"}},
		{"ÜBER FRAUD", []string{"u1"}},
		{"Ölund", []string{"u1"}},
		{"ölund", []string{"u1"}},
		{"ŠIMIĆ", []string{"u1"}},
		{"pérez", []string{"p10"}},
		{"PÉREZ", []string{"p10"}},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			papers, err := r.Scan(ctx, query.Criteria{Q: tt.q}, query.DefaultOrder, 0, 0)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, idsOf(papers))

			n, err := r.Count(ctx, query.Criteria{Q: tt.q})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}
}

func TestScan_TextQueryTrimmed(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	n, err := r.Count(context.Background(), query.Criteria{Q: "  churn  "})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScan_TextQueryWildcardsAreLiteral(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	seed(t, r, fixture()...)

	n, err := r.Count(ctx, query.Criteria{Q: "100%"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.Count(ctx, query.Criteria{Q: "%"})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a bare %% must not match every row")

	n, err = r.Count(ctx, query.Criteria{Q: "_"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScan_CategoricalExactMatch(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	seed(t, r, fixture()...)

	tests := []struct {
		name  string
		c     query.Criteria
		field func(dompaper.Paper) string
		value string
		want  int
	}{
		{"function", query.Criteria{Function: "Fraud"}, func(p dompaper.Paper) string { return p.Function }, "Fraud", 4},
		{"technique", query.Criteria{Technique: "GNN"}, func(p dompaper.Paper) string { return p.Technique }, "GNN", 2},
		{"industry", query.Criteria{Industry: "Banking"}, func(p dompaper.Paper) string { return p.Industry }, "Banking", 6},
		{"stage", query.Criteria{Stage: "Production"}, func(p dompaper.Paper) string { return p.Stage }, "Production", 4},
		{"case sensitive", query.Criteria{Function: "fraud"}, func(p dompaper.Paper) string { return p.Function }, "fraud", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			papers, err := r.Scan(ctx, tt.c, query.DefaultOrder, 0, 0)
			require.NoError(t, err)
			assert.Len(t, papers, tt.want)
			for _, p := range papers {
				assert.Equal(t, tt.value, tt.field(p))
			}
		})
	}
}

func TestScan_YearRange(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	seed(t, r, fixture()...)

	from, to := 2020, 2023
	papers, err := r.Scan(ctx, query.Criteria{YearFrom: &from, YearTo: &to}, query.DefaultOrder, 0, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p01", "p05", "p06", "p07"}, idsOf(papers))
	for _, p := range papers {
		require.NotNil(t, p.Year)
		assert.GreaterOrEqual(t, *p.Year, from)
		assert.LessOrEqual(t, *p.Year, to)
	}
}

func TestScan_YearFromZeroIsApplied(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	zero := 0
	n, err := r.Count(context.Background(), query.Criteria{YearFrom: &zero})
	require.NoError(t, err)
	assert.Equal(t, len(fixture())-1, n, "rows with NULL year fail year >= 0")
}

func TestScan_CombinedCriteriaAreConjunctive(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	from := 2022
	papers, err := r.Scan(context.Background(),
		query.Criteria{Function: "Fraud", Industry: "Banking", YearFrom: &from},
		query.DefaultOrder, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"p01"}, idsOf(papers))
}

func TestScan_CountMatchesUnlimitedScan(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	seed(t, r, fixture()...)

	for _, c := range []query.Criteria{
		{}, {Q: "fraud"}, {Function: "Fraud"}, {Industry: "Banking", Stage: "Production"}, {Q: "zzz"},
	} {
		n, err := r.Count(ctx, c)
		require.NoError(t, err)
		papers, err := r.Scan(ctx, c, query.DefaultOrder, 0, 0)
		require.NoError(t, err)
		assert.Len(t, papers, n, "criteria %+v", c)
	}
}

func TestScan_PaginationCoversAllRowsOnce(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	seed(t, r, fixture()...)
	// Ties on year exercise the id tiebreaker.
	seed(t, r,
		dompaper.Paper{ID: "t1", Title: "Tie A", Year: dompaper.IntPtr(2024)},
		dompaper.Paper{ID: "t2", Title: "Tie B", Year: dompaper.IntPtr(2024)},
	)

	for _, order := range []query.Order{query.OrderYearAsc, query.OrderYearDesc, query.OrderTitleAsc, query.OrderTitleDesc} {
		all, err := r.Scan(ctx, query.Criteria{}, order, 0, 0)
		require.NoError(t, err)

		for _, limit := range []int{1, 3, 5} {
			var paged []string
			for page := 1; page <= query.TotalPages(len(all), limit); page++ {
				chunk, err := r.Scan(ctx, query.Criteria{}, order, limit, query.Offset(page, limit))
				require.NoError(t, err)
				paged = append(paged, idsOf(chunk)...)
			}
			assert.Equal(t, idsOf(all), paged, "order=%s limit=%d", order, limit)
		}
	}
}

func TestScan_BeyondLastPageIsEmpty(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	papers, err := r.Scan(context.Background(), query.Criteria{}, query.DefaultOrder, 5, 100)
	require.NoError(t, err)
	assert.NotNil(t, papers)
	assert.Empty(t, papers)
}

func TestScan_YearDescNullsLast(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	papers, err := r.Scan(context.Background(), query.Criteria{}, query.OrderYearDesc, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, papers)

	assertNonIncreasingYear(t, papers)
	assert.Nil(t, papers[len(papers)-1].Year)
}

func TestScan_UnknownOrderFallsBackToYearDesc(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	papers, err := r.Scan(context.Background(), query.Criteria{}, query.Order("title; DROP TABLE papers"), 0, 0)
	require.NoError(t, err)
	assert.Len(t, papers, len(fixture()))
	assertNonIncreasingYear(t, papers)
}

func TestScan_TitleOrder(t *testing.T) {
	r := newRepo(t)
	seed(t, r, fixture()...)
	papers, err := r.Scan(context.Background(), query.Criteria{}, query.OrderTitleAsc, 0, 0)
	require.NoError(t, err)
	for i := 1; i < len(papers); i++ {
		assert.LessOrEqual(t, papers[i-1].Title, papers[i].Title)
	}
}

func TestSQL_PostgresPlaceholders(t *testing.T) {
	ins := insertSQL(db.DialectPostgres)
	assert.True(t, strings.HasSuffix(ins, fmt.Sprintf("$%d)", len(columns))), ins)
	assert.NotContains(t, ins, "?")

	upd := updateSQL(db.DialectPostgres)
	assert.Contains(t, upd, "title = $1")
	assert.True(t, strings.HasSuffix(upd, fmt.Sprintf("WHERE id = $%d", len(columns))), upd)
}

func TestSQL_SQLitePlaceholders(t *testing.T) {
	upd := updateSQL(db.DialectSQLite)
	assert.Equal(t, len(columns), strings.Count(upd, "?"))
}

func idsOf(papers []dompaper.Paper) []string {
	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	return ids
}

func assertNonIncreasingYear(t *testing.T, papers []dompaper.Paper) {
	t.Helper()
	prev := math.MaxInt
	seenNull := false
	for _, p := range papers {
		if p.Year == nil {
			seenNull = true
			continue
		}
		assert.False(t, seenNull, "dated paper %s after undated one", p.ID)
		assert.LessOrEqual(t, *p.Year, prev, "paper %s", p.ID)
		prev = *p.Year
	}
}

func TestWrite_ConcurrentWritersAndReaders(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	const (
		writers = 40
		readers = 40
		links   = 5
	)

	var (
		wg      sync.WaitGroup
		created atomic.Int64
		errs    atomic.Int64
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := dompaper.Paper{
				Title: fmt.Sprintf("Paper %d", i%links),
				Link:  fmt.Sprintf("http://papers/%d", i%links),
				Year:  dompaper.IntPtr(2000 + i),
			}.WithIdentity()
			ok, err := r.Write(ctx, &p)
			if err != nil {
				errs.Add(1)
				return
			}
			if ok {
				created.Add(1)
			}
		}()
	}
	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Scan(ctx, query.Criteria{Q: "paper"}, query.DefaultOrder, 0, 0); err != nil {
				errs.Add(1)
			}
			if _, err := r.Count(ctx, query.Criteria{}); err != nil {
				errs.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, errs.Load())
	assert.Equal(t, int64(links), created.Load())

	n, err := r.Count(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, links, n)
}
