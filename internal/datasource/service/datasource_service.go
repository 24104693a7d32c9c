// Package service implements data source uploads. An upload is parsed, the
// raw file is kept on disk for re-processing, and the parsed rows land in the
// store as JSON. All operations are scoped to the dashboard's owner.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	activitydomain "collabboard/backend/internal/activity/domain"
	activityrepo "collabboard/backend/internal/activity/repository"
	dashboardrepo "collabboard/backend/internal/dashboard/repository"
	"collabboard/backend/internal/datasource/domain"
	"collabboard/backend/internal/datasource/parser"
	"collabboard/backend/internal/datasource/repository"
)

// Sentinel errors for the data source service; handlers map them to HTTP status codes.
var (
	ErrNotFound          = errors.New("data source not found")
	ErrDashboardNotFound = errors.New("dashboard not found")
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrEmptyFile         = parser.ErrEmptyFile
)

// DataSourceService parses uploads and manages stored data sources.
type DataSourceService struct {
	repo       repository.Repository
	dashboards dashboardrepo.Repository
	activity   activityrepo.Repository
	uploadDir  string
	log        *slog.Logger
}

// NewDataSourceService returns a DataSourceService writing raw uploads under
// uploadDir. An empty uploadDir disables raw file retention.
func NewDataSourceService(repo repository.Repository, dashboards dashboardrepo.Repository, activity activityrepo.Repository, uploadDir string, log *slog.Logger) *DataSourceService {
	if log == nil {
		log = slog.Default()
	}
	return &DataSourceService{repo: repo, dashboards: dashboards, activity: activity, uploadDir: uploadDir, log: log}
}

// Upload parses the named file for the owner's dashboard and persists it as a
// data source. The source type is taken from the filename extension.
func (s *DataSourceService) Upload(ctx context.Context, userID, dashboardID int64, filename string, file io.Reader) (*domain.DataSource, error) {
	d, err := s.dashboards.GetByID(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.OwnerID != userID {
		return nil, ErrDashboardNotFound
	}

	srcType, err := typeFromFilename(filename)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var res *parser.Result
	switch srcType {
	case domain.TypeCSV:
		res, err = parser.ParseCSV(bytes.NewReader(raw))
	case domain.TypeJSON:
		res, err = parser.ParseJSON(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(res.Rows)
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(domain.Metadata{
		Columns:     res.Columns,
		ColumnTypes: res.ColumnTypes,
		RowCount:    len(res.Rows),
	})
	if err != nil {
		return nil, err
	}

	ds := &domain.DataSource{
		DashboardID: dashboardID,
		Name:        filepath.Base(filename),
		Type:        srcType,
		Data:        data,
		Metadata:    meta,
	}
	if s.uploadDir != "" {
		path, err := s.saveRaw(filename, raw)
		if err != nil {
			// The parsed rows are what the product uses; losing the raw
			// copy is not fatal.
			s.log.Warn("raw upload not retained", "filename", filename, "error", err)
		} else {
			ds.FilePath = path
		}
	}
	if err := s.repo.Create(ctx, ds); err != nil {
		return nil, err
	}
	s.record(ctx, userID, dashboardID, ds.Name)
	return ds, nil
}

// ListByDashboard returns the owner's data sources for a dashboard.
func (s *DataSourceService) ListByDashboard(ctx context.Context, userID, dashboardID int64) ([]*domain.DataSource, error) {
	d, err := s.dashboards.GetByID(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.OwnerID != userID {
		return nil, ErrDashboardNotFound
	}
	return s.repo.ListByDashboard(ctx, dashboardID)
}

// Get returns one data source if its dashboard belongs to userID.
func (s *DataSourceService) Get(ctx context.Context, userID, id int64) (*domain.DataSource, error) {
	ds, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, ErrNotFound
	}
	d, err := s.dashboards.GetByID(ctx, ds.DashboardID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.OwnerID != userID {
		return nil, ErrNotFound
	}
	return ds, nil
}

// Delete removes one data source if its dashboard belongs to userID. The raw
// file, if retained, is removed as well.
func (s *DataSourceService) Delete(ctx context.Context, userID, id int64) error {
	ds, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if ds.FilePath != "" {
		if err := os.Remove(ds.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("raw upload not removed", "path", ds.FilePath, "error", err)
		}
	}
	return nil
}

func (s *DataSourceService) saveRaw(filename string, raw []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(filename))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *DataSourceService) record(ctx context.Context, userID, dashboardID int64, name string) {
	details, _ := json.Marshal(map[string]string{"name": name})
	e := &activitydomain.Entry{
		UserID:      userID,
		DashboardID: dashboardID,
		Action:      activitydomain.ActionDataUploaded,
		Details:     details,
	}
	if err := s.activity.Create(ctx, e); err != nil {
		s.log.Warn("activity entry dropped", "action", e.Action, "dashboard_id", dashboardID, "error", err)
	}
}

func typeFromFilename(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return domain.TypeCSV, nil
	case ".json":
		return domain.TypeJSON, nil
	default:
		return "", ErrUnsupportedType
	}
}
