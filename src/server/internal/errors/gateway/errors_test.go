package gateway_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/midifi/src/server/internal/errors/api"
	"github.com/veedubyou/midifi/src/server/internal/errors/gateway"
	fileerrors "github.com/veedubyou/midifi/src/server/internal/files/errors"
	runerrors "github.com/veedubyou/midifi/src/server/internal/run/errors"
	. "github.com/veedubyou/midifi/src/shared/testing"
)

type codeStatus struct {
	code   api.ErrorCode
	status int
}

var expectedStatuses = []codeStatus{
	{api.DefaultErrorCode, http.StatusInternalServerError},
	{runerrors.RunNotFoundCode, http.StatusNotFound},
	{runerrors.BadRunRequestCode, http.StatusBadRequest},
	{runerrors.EnqueueFailedCode, http.StatusServiceUnavailable},
	{fileerrors.PathEscapeCode, http.StatusBadRequest},
	{fileerrors.FileNotFoundCode, http.StatusNotFound},
	{fileerrors.NotADirectoryCode, http.StatusBadRequest},
	{fileerrors.IsADirectoryCode, http.StatusBadRequest},
}

var _ = Describe("Errors", func() {
	var response *httptest.ResponseRecorder

	respond := func(apiErr *api.Error) error {
		request := RequestFactory{Method: "GET", Target: "/runs/abc"}.MakeFake()
		response = httptest.NewRecorder()
		return gateway.ErrorResponse(PrepareEchoContext(request, response), apiErr)
	}

	Describe("HTTP status code handling for ErrorCodes", func() {
		for _, expected := range expectedStatuses {
			errorCode, status := expected.code, expected.status

			It("responds to ErrorCode "+string(errorCode)+" with its status", func() {
				apiErr := api.CommitError(errors.New("the store blew up"), errorCode, "Something failed")

				Expect(respond(apiErr)).To(Succeed())
				Expect(response.Code).To(Equal(status))

				body := DecodeJSONError(response.Body)
				Expect(body.Code).To(Equal(string(errorCode)))
				Expect(body.Msg).To(Equal("Something failed"))
				Expect(body.ErrorDetails).To(ContainSubstring("the store blew up"))
			})
		}
	})

	It("panics on a code without a status", func() {
		apiErr := api.CommitError(errors.New("oops"), api.ErrorCode("made_up"), "Something failed")

		Expect(func() { _ = respond(apiErr) }).To(Panic())
	})
})
