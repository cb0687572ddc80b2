package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const donorJSON = `{"name":"Ann","age":25,"blood_type":"O-","location":"Dhaka"}`

type donor struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	BloodType string `json:"blood_type"`
	Location  string `json:"location"`
}

// registerDonor декодирует донора из тела и возвращает его с присвоенным идентификатором.
func registerDonor(w http.ResponseWriter, r *http.Request) {
	var d donor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	resp, _ := json.Marshal(struct {
		ID int64 `json:"id"`
		donor
	}{ID: 7, donor: d})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(resp)))
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(resp)
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(res.Body)
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	}

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(body)
}

func TestGzipMiddleware(t *testing.T) {
	tests := []struct {
		name            string
		handler         http.HandlerFunc
		body            []byte
		gzipBody        bool
		acceptGzip      bool
		wantStatus      int
		wantEncoding    string
		wantBodyContain string
		wantEmptyBody   bool
	}{
		{
			name:            "json reply is compressed",
			handler:         registerDonor,
			body:            []byte(donorJSON),
			acceptGzip:      true,
			wantStatus:      http.StatusCreated,
			wantEncoding:    "gzip",
			wantBodyContain: `"id":7`,
		},
		{
			name:            "client without gzip gets plain json",
			handler:         registerDonor,
			body:            []byte(donorJSON),
			wantStatus:      http.StatusCreated,
			wantBodyContain: `"blood_type":"O-"`,
		},
		{
			name:            "compressed donor body is unpacked",
			handler:         registerDonor,
			body:            gzipBytes(t, donorJSON),
			gzipBody:        true,
			acceptGzip:      true,
			wantStatus:      http.StatusCreated,
			wantEncoding:    "gzip",
			wantBodyContain: `"name":"Ann"`,
		},
		{
			name: "empty list reply stays uncompressed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			acceptGzip:    true,
			wantStatus:    http.StatusNoContent,
			wantEmptyBody: true,
		},
		{
			name: "not found error stays uncompressed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "donor not found", http.StatusNotFound)
			},
			acceptGzip:      true,
			wantStatus:      http.StatusNotFound,
			wantBodyContain: "donor not found",
		},
		{
			name: "conflict json error stays uncompressed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":"donor request is not pending"}`))
			},
			acceptGzip:      true,
			wantStatus:      http.StatusConflict,
			wantBodyContain: "not pending",
		},
		{
			name: "internal error stays uncompressed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			},
			acceptGzip:      true,
			wantStatus:      http.StatusInternalServerError,
			wantBodyContain: "Internal Server Error",
		},
		{
			name:            "malformed gzip body is rejected",
			handler:         registerDonor,
			body:            []byte(donorJSON),
			gzipBody:        true,
			acceptGzip:      true,
			wantStatus:      http.StatusBadRequest,
			wantBodyContain: "Bad Request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/donors", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.gzipBody {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip")
			}

			rec := httptest.NewRecorder()
			GzipMiddleware(tt.handler).ServeHTTP(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			require.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantEncoding, res.Header.Get("Content-Encoding"))

			body := readBody(t, res)
			if tt.wantEmptyBody {
				assert.Empty(t, body)
			}
			assert.Contains(t, body, tt.wantBodyContain)
		})
	}
}

func TestGzipMiddleware_DropsContentLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/donors", bytes.NewReader([]byte(donorJSON)))
	req.Header.Set("Accept-Encoding", "gzip")

	rec := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(registerDonor)).ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	assert.Empty(t, res.Header.Get("Content-Length"))

	var got struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, res)), &got))
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "Ann", got.Name)
}
