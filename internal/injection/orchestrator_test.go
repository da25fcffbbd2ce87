package injection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"golang.org/x/time/rate"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/metrics"
	"github.com/blogforge/distributor/internal/models"
)

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(nil, nil, nil, nil,
		rate.NewLimiter(rate.Inf, 1),
		metrics.New(prometheus.NewRegistry()),
		logger.NewNopLogger(),
	)
}

type fakeSites struct{ sites map[string]*models.Site }

func (f *fakeSites) GetByID(_ context.Context, id string) (*models.Site, error) {
	site, ok := f.sites[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return site, nil
}

func (f *fakeSites) List(_ context.Context) ([]*models.Site, error) {
	out := make([]*models.Site, 0, len(f.sites))
	for _, s := range f.sites {
		out = append(out, s)
	}
	return out, nil
}

type fakeConnector struct {
	dbs  map[string]*sqlx.DB
	errs map[string]error
}

func (f *fakeConnector) Get(_ context.Context, siteID string) (*sqlx.DB, error) {
	if err, ok := f.errs[siteID]; ok {
		return nil, err
	}
	return f.dbs[siteID], nil
}

func TestInject_SiteFailureDoesNotAbortBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("blogs"))
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("blogs").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "bigint", "NO").
			AddRow("title", "text", "NO").
			AddRow("content", "text", "YES").
			AddRow("status", "text", "YES"))
	mock.ExpectQuery(`INSERT INTO "blogs"`).
		WithArgs("<p>hi</p>", "published", "Post").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	sites := &fakeSites{sites: map[string]*models.Site{
		"site-a": {ID: "site-a", TargetTable: "blogs"},
		"site-b": {ID: "site-b", TargetTable: "blogs"},
	}}
	pool := &fakeConnector{
		dbs:  map[string]*sqlx.DB{"site-b": sqlx.NewDb(db, "postgres")},
		errs: map[string]error{"site-a": errors.New("connection refused")},
	}

	o := NewOrchestrator(sites, pool, destination.NewWriter(logger.NewNopLogger()), nil,
		rate.NewLimiter(rate.Inf, 2),
		metrics.New(prometheus.NewRegistry()),
		logger.NewNopLogger(),
	)

	results, err := o.Inject(context.Background(), Request{
		Spec: &models.CampaignSpec{TargetSiteIDs: []string{"site-a", "site-b"}},
		Content: &models.GeneratedContent{
			H1:       "Post",
			BodyHTML: "<p>hi</p>",
		},
		Status: models.StatusPublished,
	})
	if err != nil {
		t.Fatalf("batch should not fail when one site fails: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want one per site", len(results))
	}

	// Results come back sorted by site id.
	if results[0].SiteID != "site-a" || results[0].Status != models.InjectionError {
		t.Errorf("site-a result = %+v, want an error entry", results[0])
	}
	if !strings.Contains(results[0].Error, "connection refused") {
		t.Errorf("site-a error = %q, want the connection failure", results[0].Error)
	}
	if results[1].SiteID != "site-b" || results[1].Status != models.InjectionSuccess {
		t.Errorf("site-b result = %+v, want a success entry", results[1])
	}
	if results[1].PostID != 7 {
		t.Errorf("site-b post id = %d, want 7", results[1].PostID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInject_NoTargetSites(t *testing.T) {
	o := newTestOrchestrator()

	tests := []struct {
		name string
		req  Request
	}{
		{name: "nil spec", req: Request{Content: &models.GeneratedContent{BodyHTML: "x"}}},
		{name: "empty site list", req: Request{
			Spec:    &models.CampaignSpec{},
			Content: &models.GeneratedContent{BodyHTML: "x"},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.Inject(context.Background(), tc.req)
			if !errors.Is(err, models.ErrNoTargetSites) {
				t.Fatalf("expected ErrNoTargetSites, got %v", err)
			}
		})
	}
}

func TestInject_MissingContent(t *testing.T) {
	o := newTestOrchestrator()
	_, err := o.Inject(context.Background(), Request{
		Spec: &models.CampaignSpec{TargetSiteIDs: []string{"site-1"}},
	})
	if err == nil {
		t.Fatal("expected an error for missing content")
	}
}

func TestResolveTable(t *testing.T) {
	o := newTestOrchestrator()

	tests := []struct {
		name string
		req  Request
		site *models.Site
		want string
	}{
		{
			name: "override wins",
			req:  Request{TableOverrides: map[string]string{"site-1": "articles"}},
			site: &models.Site{ID: "site-1", TargetTable: "blogs"},
			want: "articles",
		},
		{
			name: "override normalized",
			req:  Request{TableOverrides: map[string]string{"site-1": "Blog"}},
			site: &models.Site{ID: "site-1"},
			want: "blogs",
		},
		{
			name: "site default next",
			req:  Request{},
			site: &models.Site{ID: "site-1", TargetTable: "posts"},
			want: "posts",
		},
		{
			name: "fallback",
			req:  Request{},
			site: &models.Site{ID: "site-1"},
			want: "blogs",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := o.resolveTable(context.Background(), tc.req, tc.site)
			if got != tc.want {
				t.Errorf("resolveTable = %q, want %q", got, tc.want)
			}
		})
	}
}
