package waitlist

import (
	"net/http"
	"time"

	"github.com/akeren/waitlist-api/config/router"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
)

const waitlistCreationRequestsPerMinute = 30

// ValidationErrorBody is the 400 body for rejected signups.
type ValidationErrorBody struct {
	Error  string                              `json:"error"`
	Fields []apperrors.ValidationErrorResponse `json:"fields"`
}

// NewWaitlistController mounts the unversioned /waitlist routes. Bodies are bare JSON, not the
// {code, data, message} envelope.
func NewWaitlistController(service WaitlistService) *router.RESTController {
	return router.NewRESTController(
		"WaitlistController",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			waitlistCreationLimiter := rs.NewRateLimiter("waitlist:create", waitlistCreationRequestsPerMinute, time.Minute)

			rs.AddPostHandler(c, waitlistCreationLimiter, "", createWaitlistEntryHandler(service))
			rs.AddGetHandler(c, nil, "", getAllWaitlistEntriesHandler(service))
			rs.AddGetHandler(c, nil, "/:id", getWaitlistEntryHandler(service))
			rs.AddDeleteHandler(c, nil, "/:id", deleteWaitlistEntryHandler(service))
		},
	)
}

func errorResult(err error) *router.ServiceResult {
	return router.BareErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err))
}

func createWaitlistEntryHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req CreateWaitlistEntryRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Rejected waitlist signup", "error", err)

			fields := apperrors.FormatValidationErrors(err, &req)
			message := "Invalid request payload"
			if len(fields) == 0 {
				fields = []apperrors.ValidationErrorResponse{}
				message = "Invalid request body"
			}

			return router.BareJSONResult(http.StatusBadRequest, ValidationErrorBody{Error: message, Fields: fields})
		}

		response, err := service.CreateEntry(ctx.Request.Context(), &req)
		if err != nil {
			return errorResult(err)
		}

		return router.BareJSONResult(http.StatusOK, response)
	}
}

func getAllWaitlistEntriesHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.GetAllEntries(ctx.Request.Context())
		if err != nil {
			return errorResult(err)
		}

		return router.BareJSONResult(http.StatusOK, response)
	}
}

// getWaitlistEntryHandler answers 200 with a JSON null for unknown ids.
func getWaitlistEntryHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		id, errResult := router.ParseIDParam(ctx, "id")
		if errResult != nil {
			return errResult
		}

		response, err := service.FindEntryByID(ctx.Request.Context(), id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return router.BareJSONResult(http.StatusOK, nil)
			}
			return errorResult(err)
		}

		return router.BareJSONResult(http.StatusOK, response)
	}
}

func deleteWaitlistEntryHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		id, errResult := router.ParseIDParam(ctx, "id")
		if errResult != nil {
			return errResult
		}

		if err := service.DeleteEntry(ctx.Request.Context(), id); err != nil {
			return errorResult(err)
		}

		return router.BareJSONResult(http.StatusOK, StatusResponse{Status: "ok"})
	}
}
