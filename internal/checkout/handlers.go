package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mindcare/checkout-api/internal/common"
)

// Handler exposes the session endpoint over HTTP.
type Handler struct {
	Svc *Service
}

// sessionRequestBody accepts the legacy "priceId" field from older pages.
type sessionRequestBody struct {
	PriceReference string `json:"priceReference"`
	PriceID        string `json:"priceId"`
	Mode           Mode   `json:"mode"`
}

// CreateSession handles POST /create-checkout-session. Success answers
// {"redirectUrl": ...}; every failure answers {"errorMessage": ...} with a
// non-2xx status.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONMessage(w, http.StatusInternalServerError, "checkout is not configured")
		return
	}

	var body sessionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("decode session request")
		common.JSONMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	req := SessionRequest{PriceReference: body.PriceReference, Mode: body.Mode}
	if strings.TrimSpace(req.PriceReference) == "" {
		req.PriceReference = body.PriceID
	}

	res, err := h.Svc.CreateSession(r.Context(), req, r.Header.Get("Origin"))
	if err != nil {
		common.JSONMessage(w, common.StatusOf(err), clientMessage(err))
		return
	}
	common.JSON(w, http.StatusOK, res)
}

func clientMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return msgGatewayFailed
}
