package common

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/domain/network"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Success  bool   `json:"success"`
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Message  string `json:"message"`            // Readable reason, mirrors the success envelope
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

var validate = validator.New()

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ProblemDetailsJSON writes an RFC 9457 problem response.
//
// The status comes from ErrorToStatusCode(err) unless an int is passed in
// opts; a string in opts overrides the detail, anything else is reported
// under "errors". Server errors never echo the underlying error text.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, opts ...any) error {
	status := fiber.StatusInternalServerError
	if err != nil {
		status = ErrorToStatusCode(err)
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	for _, opt := range opts {
		switch v := opt.(type) {
		case int:
			status = v
		case string:
			pd.Detail = v
		default:
			pd.Errors = v
		}
	}
	if pd.Detail == "" && err != nil {
		if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
			pd.Detail = "An unexpected error occurred"
		} else {
			pd.Detail = err.Error()
		}
	}
	pd.Status = status
	pd.Message = readable(pd.Detail)
	if pd.Message == "" {
		pd.Message = title
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// readable upper-cases the first letter of an error text.
func readable(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, network.ErrSelfConnection),
		errors.Is(err, cases.ErrEmptyComment),
		errors.Is(err, user.ErrInvalidRole):
		return fiber.StatusBadRequest
	case errors.Is(err, user.ErrUserUnauthorized),
		errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, cases.ErrNotParticipant),
		errors.Is(err, lending.ErrNotBorrower):
		return fiber.StatusForbidden
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, cases.ErrCaseNotFound),
		errors.Is(err, lending.ErrRequestNotFound),
		errors.Is(err, lending.ErrLoanNotFound),
		errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, network.ErrAlreadyConnected),
		errors.Is(err, lending.ErrRequestAlreadyResolved),
		errors.Is(err, cases.ErrPayoutAlreadyProcessed),
		errors.Is(err, cases.ErrInvalidStatusTransition),
		errors.Is(err, cases.ErrCaseClosed):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInsufficientCredits),
		errors.Is(err, lending.ErrInsufficientFundCapital),
		errors.Is(err, lending.ErrLoanNotOutstanding),
		errors.Is(err, investment.ErrSelfDealing):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrClassificationFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, err.Error(), fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
			return nil, ProblemDetailsJSON(c, "Validation failed", err, "request validation failed", fields, fiber.StatusBadRequest)
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", err, err.Error(), fiber.StatusBadRequest)
	}
	return &input, nil
}

// CurrentUserID resolves the authenticated user from the verified token.
// On failure it writes a 401 and returns ok=false.
func CurrentUserID(c *fiber.Ctx, authSvc *authsvc.Service) (uuid.UUID, bool, error) {
	token, ok := c.Locals(middleware.ContextKey).(*jwt.Token)
	if !ok {
		return uuid.Nil, false, ProblemDetailsJSON(c, "Unauthorized", nil, "missing user context", fiber.StatusUnauthorized)
	}
	userID, err := authSvc.GetCurrentUserId(token)
	if err != nil {
		return uuid.Nil, false, ProblemDetailsJSON(c, "Invalid user ID", err, fiber.StatusUnauthorized)
	}
	return userID, true, nil
}

// ParseUUIDParam parses the named path parameter. On failure it writes a 400
// and returns ok=false.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, ProblemDetailsJSON(c, "Invalid "+name, err, name+" must be a valid UUID", fiber.StatusBadRequest)
	}
	return id, true, nil
}
