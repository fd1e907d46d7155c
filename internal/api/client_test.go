package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tommy2310DK/Aspect4/internal/api"
	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, "apiuser", "secret")
	require.NoError(t, err)
	return client
}

func session() *api.Session {
	return &api.Session{ID: "test", Token: "tok"}
}

func TestNewClient(t *testing.T) {
	t.Run("should require base URL and credentials", func(t *testing.T) {
		_, err := api.NewClient("", "u", "p")
		assert.Error(t, err)

		_, err = api.NewClient("http://host", "", "")
		assert.Error(t, err)
	})
}

func TestLogon(t *testing.T) {
	t.Run("should open a session from the returned token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/logon", r.URL.Path)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "apiuser", body["user"])

			json.NewEncoder(w).Encode(map[string]string{"token": "abc123"})
		})

		sess, err := client.Logon(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "abc123", sess.Token)
		assert.NotEmpty(t, sess.ID)
	})

	t.Run("should map rejected credentials to an auth error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.Logon(context.Background())

		require.Error(t, err)
		assert.True(t, apperrors.IsAuth(err))
		assert.False(t, apperrors.IsRetryable(err))
	})

	t.Run("should keep a transient logon failure retryable and non-auth", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.Logon(context.Background())

		require.Error(t, err)
		assert.False(t, apperrors.IsAuth(err))
		assert.True(t, apperrors.IsRetryable(err))
	})

	t.Run("should reject an empty token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{})
		})

		_, err := client.Logon(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsAuth(err))
	})
}

func TestFetchOrderHeaders(t *testing.T) {
	t.Run("should decode headers and skip records without an order number", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/orderget", r.URL.Path)
			assert.Equal(t, "tok", r.Header.Get("X-Aspect4-Session"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "010000020", body["t01.chgto"])
			assert.Equal(t, float64(50), body["limit"])

			json.NewEncoder(w).Encode(map[string]any{
				"grporder": []map[string]any{
					{"t01.oordre": 4711, "ordredato": 20250801, "status": "Delvis leveret"},
					{"ordredato": 20250802, "status": "Færdig leveret"}, // no join key
					{"t01.oordre": 4712, "ordredato": 20250803, "status": "Færdig leveret"},
				},
			})
		})

		headers, err := client.FetchOrderHeaders(context.Background(), session(), "010000020", "", 50)

		require.NoError(t, err)
		require.Len(t, headers, 2)
		assert.Equal(t, int64(4711), headers[0].OrderNumber)
		assert.Equal(t, 20250801, headers[0].OrderDate)
		assert.Equal(t, "Delvis leveret", headers[0].Status)
		assert.Equal(t, int64(4712), headers[1].OrderNumber)
	})

	t.Run("should pass the order number narrowing through", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "4711", body["aordrenr"])

			json.NewEncoder(w).Encode(map[string]any{"grporder": []map[string]any{}})
		})

		_, err := client.FetchOrderHeaders(context.Background(), session(), "010000020", "4711", 50)
		require.NoError(t, err)
	})

	t.Run("should mark backend failures retryable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.FetchOrderHeaders(context.Background(), session(), "010000020", "", 50)

		require.Error(t, err)
		assert.True(t, apperrors.IsRetryable(err))
		assert.False(t, apperrors.IsAuth(err))
	})
}

func TestFetchOrderLines(t *testing.T) {
	t.Run("should skip lines missing a join key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/orderlinesget", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"grpordline": []map[string]any{
					{"t01.oordre": 4711, "t01.oorlin": 1, "t01.felt1": "1200"},
					{"t01.oordre": 4711, "t01.felt1": "1300"}, // no line number
					{"t01.oorlin": 3, "t01.felt1": "1400"},    // no order number
					{"t01.oordre": 4711, "t01.oorlin": 2, "t01.felt1": "1500"},
				},
			})
		})

		lines, err := client.FetchOrderLines(context.Background(), session(), "010000020", 4711)

		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, int64(1), lines[0].LineNumber)
		assert.Equal(t, int64(2), lines[1].LineNumber)
	})
}

func TestFetchStatusLines(t *testing.T) {
	t.Run("should keep every status line including duplicates per line number", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/staordlinesget", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"grpstaordline": []map[string]any{
					{"t01.oordre": 4711, "t01.oorlin": 1, "status": "Delvis leveret", "faknr": "90001"},
					{"t01.oordre": 4711, "t01.oorlin": 1, "status": "Delvis leveret", "faknr": "90002"},
				},
			})
		})

		lines, err := client.FetchStatusLines(context.Background(), session(), "010000020", 4711)

		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, int64(1), lines[0].LineNumber)
		assert.Equal(t, "90001", lines[0].Fields["faknr"])
		assert.Equal(t, "90002", lines[1].Fields["faknr"])
	})
}

func TestFetchOrderedSizes(t *testing.T) {
	t.Run("should flatten size groups into per-size records", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/ordlinsizeget", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"grpordlinsize": []map[string]any{
					{
						"t01.oorlin": 1,
						"antalprstor2": []map[string]any{
							{"stor": "M", "antal": 15, "ean": 5701234000013, "apris1": 129.5},
							{"stor": "XL", "antal": 50},
							{"stor": "", "antal": 3},  // no label
							{"antal": 2},              // no label at all
							{"stor": "S"},             // no quantity
						},
					},
					{
						// group without a line number is skipped whole
						"antalprstor2": []map[string]any{{"stor": "M", "antal": 1}},
					},
				},
			})
		})

		records, err := client.FetchOrderedSizes(context.Background(), session(), "010000020", 4711)

		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, int64(4711), records[0].OrderNumber)
		assert.Equal(t, int64(1), records[0].LineNumber)
		assert.Equal(t, "M", records[0].Size)
		assert.Equal(t, int64(15), records[0].Qty)
		require.NotNil(t, records[0].EAN)
		assert.Equal(t, int64(5701234000013), *records[0].EAN)
		require.NotNil(t, records[0].UnitPrice)
		assert.Equal(t, "129.5", records[0].UnitPrice.String())

		assert.Equal(t, "XL", records[1].Size)
		assert.Nil(t, records[1].EAN)
		assert.Nil(t, records[1].UnitPrice)
	})
}
