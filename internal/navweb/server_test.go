package navweb

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navsync/internal/nav"
	"github.com/banshee-data/navsync/internal/nav/frame"
	"github.com/banshee-data/navsync/internal/navdb"
)

// fixtureLogs builds a combined position hex log and an inertial line log
// covering a 10 second span.
func fixtureLogs(t *testing.T) (combined, inertial string) {
	t.Helper()

	var pos strings.Builder
	for i := 0; i < 10; i++ {
		rec := &nav.PositionRecord{
			Year: 2024, Month: 6, Day: 1, Hour: 12, Minute: 0,
			Microsecond: uint32(i) * 1_000_000,
			Longitude:   121.5 + float64(i)*0.0001,
			Latitude:    31.2 + float64(i)*0.0001,
			Altitude:    10 + float64(i),
		}
		ins := &nav.InertialRecord{AccelZ: -9.81}
		pos.WriteString(hex.EncodeToString(frame.EncodePosition(rec)))
		pos.WriteString(hex.EncodeToString(frame.EncodeInertial(ins)))
		pos.WriteString("\n")
	}

	var lines strings.Builder
	for i := 0; i < 50; i++ {
		ins := &nav.InertialRecord{GyroX: float64(i) * 1e-4, AccelZ: -9.81}
		fmt.Fprintf(&lines, "%s\n", hex.EncodeToString(frame.EncodeInertial(ins)))
	}
	return pos.String(), lines.String()
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	db, err := navdb.NewDB(filepath.Join(dir, "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewServer(ServerConfig{Address: "127.0.0.1:0", DB: db, DataDir: filepath.Join(dir, "data")})
	ts := httptest.NewServer(s.ServeMux())
	t.Cleanup(ts.Close)
	return s, ts
}

func uploadJob(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	combined, inertial := fixtureLogs(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("position", "combined.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(combined))
	require.NoError(t, err)
	fw, err = mw.CreateFormFile("inertial", "inertial.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(inertial))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotEmpty(t, got.JobID)
	assert.Equal(t, navdb.StatusUploaded, got.Status)
	return got.JobID
}

func waitForStatus(t *testing.T, ts *httptest.Server, jobID, want string) {
	t.Helper()

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/status?job_id=" + jobID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var job struct {
			Status string
			Error  string
		}
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			return false
		}
		if job.Status == navdb.StatusFailed && want != navdb.StatusFailed {
			t.Fatalf("job failed: %s", job.Error)
		}
		return job.Status == want
	}, 10*time.Second, 50*time.Millisecond)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadRequiresBothLogs(t *testing.T) {
	_, ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("position", "combined.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("99"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessLifecycle(t *testing.T) {
	s, ts := newTestServer(t)
	jobID := uploadJob(t, ts)

	resp, err := http.PostForm(ts.URL+"/api/process", map[string][]string{
		"job_id": {jobID},
		"method": {"linear"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	waitForStatus(t, ts, jobID, navdb.StatusCompleted)

	// Persisted report round-trips through /api/results.
	resp, err = http.Get(ts.URL + "/api/results?job_id=" + jobID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results struct {
		JobID          string `json:"job_id"`
		Method         string `json:"method"`
		ResampledCount int    `json:"resampled_count"`
		Report         struct {
			TotalPairs int `json:"total_pairs"`
		} `json:"report"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	assert.Equal(t, jobID, results.JobID)
	assert.Equal(t, "linear", results.Method)
	assert.Greater(t, results.ResampledCount, 0)
	assert.Equal(t, 50, results.Report.TotalPairs)

	// In-memory results back the chart endpoints.
	require.NotNil(t, s.jobResults(jobID))
	for _, path := range []string{"/charts/alignment", "/charts/resample", "/charts/trajectory"} {
		resp, err := http.Get(ts.URL + path + "?job_id=" + jobID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html", path)
		resp.Body.Close()
	}
}

func TestProcessUnknownJob(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.PostForm(ts.URL+"/api/process", map[string][]string{
		"job_id": {"nope"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResultsBeforeProcessing(t *testing.T) {
	_, ts := newTestServer(t)
	jobID := uploadJob(t, ts)

	resp, err := http.Get(ts.URL + "/api/results?job_id=" + jobID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobsListAndDelete(t *testing.T) {
	s, ts := newTestServer(t)
	jobID := uploadJob(t, ts)

	resp, err := http.Get(ts.URL + "/api/jobs")
	require.NoError(t, err)
	var listing struct {
		Jobs []navdb.Job `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	require.Len(t, listing.Jobs, 1)
	assert.Equal(t, jobID, listing.Jobs[0].ID)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/jobs?job_id="+jobID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/status?job_id=" + jobID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Nil(t, s.jobResults(jobID))
}

func TestChartsWithoutResults(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/charts/alignment?job_id=missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
