//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/claritymed/regpilot/internal/api/handlers"
	"github.com/claritymed/regpilot/internal/embedding"
	"github.com/claritymed/regpilot/internal/repository"
	"github.com/claritymed/regpilot/internal/server"
	"github.com/claritymed/regpilot/internal/service"
	"github.com/claritymed/regpilot/internal/storage"
	"github.com/claritymed/regpilot/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-artifacts",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// StreamGenerate posts to the generate-stream endpoint and decodes every
// NDJSON event until the stream closes.
func (e *E2ETestEnv) StreamGenerate(submissionID string) ([]service.ProgressEvent, error) {
	url := fmt.Sprintf("%s/api/v1/submissions/%s/generate-stream", e.ServerURL, submissionID)

	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var events []service.ProgressEvent
	dec := json.NewDecoder(resp.Body)
	for {
		var ev service.ProgressEvent
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// DownloadFile downloads a file from the presigned URL
func (e *E2ETestEnv) DownloadFile(downloadURL string) ([]byte, error) {
	resp, err := e.HTTPClient.Get(downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// startServer starts the HTTP server with all handlers
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	predicateRepo := repository.NewPredicateRepository(pool)
	runRepo := repository.NewGenerationRunRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	embedProvider := embedding.NewProvider()
	retriever := service.NewKnowledgeRetriever(knowledgeRepo, embedProvider)
	ragBuilder := service.NewRAGContextBuilder(retriever)
	seeder := service.NewKnowledgeSeeder(knowledgeRepo, embedProvider)

	knowledgeSvc := service.NewKnowledgeService(knowledgeRepo, retriever)
	submissionSvc := service.NewSubmissionService(submissionRepo, documentRepo, runRepo)
	predicateSvc := service.NewPredicateService(predicateRepo)
	pipeline := service.NewGenerationPipeline(
		submissionRepo, predicateRepo, documentRepo, ragBuilder,
		&scriptedCompletionClient{}, txRunner, s3Client,
	)

	cfg := server.RouterConfig{
		KnowledgeHandler:  handlers.NewKnowledgeHandler(knowledgeSvc, seeder),
		SubmissionHandler: handlers.NewSubmissionHandler(submissionSvc, s3Client),
		GenerateHandler:   handlers.NewGenerateHandler(pipeline),
		PredicateHandler:  handlers.NewPredicateHandler(predicateSvc),
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// scriptedCompletionClient stands in for the LLM so generation runs without
// a live API. Streamed output is split into chunks to exercise the chunk
// events; the compliance check reports a fixed score.
type scriptedCompletionClient struct{}

const scriptedDocument = `## Device Description

The device is a continuous glucose monitoring system intended for ` +
	`adjunctive use in diabetes management.

## Substantial Equivalence Discussion

The subject device has the same intended use and similar technological ` +
	`characteristics as the predicate device.`

func (c *scriptedCompletionClient) Model() string {
	return "scripted"
}

func (c *scriptedCompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "Compliance Score: 82\n\nThe submission meets key 21 CFR 807.92 content requirements.", nil
}

func (c *scriptedCompletionClient) StreamComplete(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string) error) (string, error) {
	const chunkSize = 64
	for i := 0; i < len(scriptedDocument); i += chunkSize {
		end := i + chunkSize
		if end > len(scriptedDocument) {
			end = len(scriptedDocument)
		}
		if err := onChunk(scriptedDocument[i:end]); err != nil {
			return "", err
		}
	}
	return scriptedDocument, nil
}
