package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/csv-import/internal/application/importer"
	httpecho "github.com/mohammadpnp/csv-import/internal/interfaces/http/echo"
)

type fakeEnqueueUseCase struct {
	output app.EnqueueImportOutput
	err    error
	got    app.EnqueueImportInput
}

func (f *fakeEnqueueUseCase) Execute(ctx context.Context, in app.EnqueueImportInput) (app.EnqueueImportOutput, error) {
	f.got = in
	if f.err != nil {
		return app.EnqueueImportOutput{}, f.err
	}
	return f.output, nil
}

type fakeGetJobUseCase struct {
	output app.ImportJobOutput
	err    error
}

func (f *fakeGetJobUseCase) Execute(ctx context.Context, in app.GetImportJobInput) (app.ImportJobOutput, error) {
	if f.err != nil {
		return app.ImportJobOutput{}, f.err
	}
	return f.output, nil
}

func newTestServer(enqueue app.EnqueueImport, getJob app.GetImportJob, processor *fakeProcessor) *echo.Echo {
	e := echo.New()
	if processor == nil {
		processor = &fakeProcessor{}
	}
	httpecho.RegisterRoutes(e, httpecho.NewImportHandler(enqueue, getJob), httpecho.NewProcessHandler(processor))
	return e
}

func TestImportHandlerEnqueueSuccess(t *testing.T) {
	t.Parallel()

	useCase := &fakeEnqueueUseCase{output: app.EnqueueImportOutput{JobID: "job-1", Status: "pending"}}
	e := newTestServer(useCase, &fakeGetJobUseCase{}, nil)

	body := []byte(`{"organization_id":"org-1","user_id":"user-1","file_name":"contacts.csv","file_path":"org-1/contacts.csv","import_type":"contacts"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if useCase.got.ImportType != "contacts" || useCase.got.FilePath != "org-1/contacts.csv" {
		t.Fatalf("unexpected use case input: %+v", useCase.got)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	data, ok := got["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data payload: %#v", got["data"])
	}
	if data["job_id"] != "job-1" || data["status"] != "pending" {
		t.Fatalf("unexpected data: %#v", data)
	}
}

func TestImportHandlerEnqueueBadJSON(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeEnqueueUseCase{}, &fakeGetJobUseCase{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewReader([]byte(`{"file_name":`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestImportHandlerEnqueueErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid input", err: fmt.Errorf("%w: file must be a .csv", app.ErrInvalidImportInput), want: http.StatusBadRequest},
		{name: "repository failure", err: fmt.Errorf("%w: db down", app.ErrEnqueueImportJob), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestServer(&fakeEnqueueUseCase{err: tt.err}, &fakeGetJobUseCase{}, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewReader([]byte(`{"file_name":"x.txt"}`)))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestImportHandlerGetJob(t *testing.T) {
	t.Parallel()

	getJob := &fakeGetJobUseCase{output: app.ImportJobOutput{
		ID:           "job-1",
		Status:       "processing",
		CurrentStage: "inserting",
		SuccessCount: 500,
		Errors:       nil,
	}}
	e := newTestServer(&fakeEnqueueUseCase{}, getJob, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/job-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got struct {
		Data app.ImportJobOutput `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	if got.Data.CurrentStage != "inserting" || got.Data.SuccessCount != 500 {
		t.Fatalf("unexpected job payload: %+v", got.Data)
	}
}

func TestImportHandlerGetJobErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid id", err: app.ErrInvalidImportJob, want: http.StatusBadRequest},
		{name: "not found", err: app.ErrImportJobNotFound, want: http.StatusNotFound},
		{name: "repository failure", err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestServer(&fakeEnqueueUseCase{}, &fakeGetJobUseCase{err: tt.err}, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/anything", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
