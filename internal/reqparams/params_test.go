package reqparams

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

func TestPathID(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/tasks/12", nil)
	ctx := context.WithValue(req.Context(), httprouter.ParamsKey, httprouter.Params{{Key: "id", Value: "12"}})
	id, err := PathID(req.WithContext(ctx), "id", "bad id")
	require.NoError(t, err)
	require.Equal(t, int64(12), id)

	for _, v := range []string{"abc", "0", "-3", ""} {
		ctx := context.WithValue(req.Context(), httprouter.ParamsKey, httprouter.Params{{Key: "id", Value: v}})
		_, err := PathID(req.WithContext(ctx), "id", "bad id")
		require.ErrorAs(t, err, &apierr.ValidationError{}, "value %q", v)
	}
}

func TestQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/tasks?page=2&limit=x&find=%20milk%20", nil)
	q := NewQuery(req)
	require.Equal(t, 2, q.Int("page", 1))
	require.Equal(t, 10, q.Int("limit", 10))
	require.Equal(t, "milk", q.String("find", ""))
	require.Equal(t, "desc", q.String("sortDirection", "desc"))

	err := q.Merge(apierr.ValidationError{Fields: []apierr.FieldError{{Field: "find"}}})
	var verr apierr.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	require.Equal(t, "limit", verr.Fields[0].Field)

	require.NoError(t, NewQuery(httptest.NewRequest("GET", "/", nil)).Merge(nil))
}
