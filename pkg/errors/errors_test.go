package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	require.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)
	require.Equal(t, http.StatusConflict, MetadataFor(CodeConflict).HTTPStatus)
	require.Equal(t, http.StatusBadRequest, MetadataFor(CodeSignature).HTTPStatus)
	require.Equal(t, http.StatusInternalServerError, MetadataFor(Code("bogus")).HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(CodeDependency, cause, "payment gateway")
	require.ErrorIs(t, err, cause)
	require.Equal(t, CodeDependency, err.Code())
	require.Equal(t, "DEPENDENCY_ERROR: payment gateway", err.Error())
}

func TestAsUnwrapsNested(t *testing.T) {
	inner := New(CodeConflict, "coupon exhausted")
	wrapped := fmt.Errorf("applying coupon: %w", inner)
	typed := As(wrapped)
	require.NotNil(t, typed)
	require.Equal(t, CodeConflict, typed.Code())
	require.Nil(t, As(fmt.Errorf("plain")))
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, fmt.Errorf("root"), "outer")
	dump := Dump(err)
	require.Equal(t, CodeInternal, dump.Code)
	require.Len(t, dump.Chain, 2)
}
