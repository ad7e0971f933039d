package util_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"littlelemon/internal/apierr"
	"littlelemon/internal/util"
)

func TestParseIntDefault(t *testing.T) {
	require.Equal(t, 7, util.ParseIntDefault("7", 1))
	require.Equal(t, 1, util.ParseIntDefault("", 1))
	require.Equal(t, 1, util.ParseIntDefault("seven", 1))
}

func TestPathID(t *testing.T) {
	e := echo.New()
	ctx := func(raw string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		return c
	}

	id, err := util.PathID(ctx("42"))
	require.NoError(t, err)
	require.Equal(t, uint(42), id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, err := util.PathID(ctx(raw))
		require.ErrorIs(t, err, apierr.ErrValidation)
	}
}

func TestCalculate(t *testing.T) {
	offset, limit := util.Calculate(3, 20)
	require.Equal(t, 40, offset)
	require.Equal(t, 20, limit)

	offset, limit = util.Calculate(0, 0)
	require.Equal(t, 0, offset)
	require.Equal(t, util.DefaultPageSize, limit)

	_, limit = util.Calculate(1, 1000)
	require.Equal(t, util.DefaultPageSize, limit)
}
