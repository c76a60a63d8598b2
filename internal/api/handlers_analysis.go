package api

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/medcheck/api/internal/models"
)

// identityFromCtx returns the identity stored by authMiddleware
func (s *Server) identityFromCtx(ctx *fasthttp.RequestCtx) (models.Identity, bool) {
	identity, ok := ctx.UserValue("identity").(models.Identity)
	return identity, ok
}

// analyzeInteractionsHandler checks a set of medications against each
// other and optional conditions
func (s *Server) analyzeInteractionsHandler(ctx *fasthttp.RequestCtx) {
	identity, ok := s.identityFromCtx(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	var req models.InteractionRequest
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	result, err := s.analysisService.AnalyzeInteractions(ctx, identity, &req)
	if err != nil {
		s.sendAppError(ctx, err, "Failed to analyze interactions")
		return
	}

	s.sendJSON(ctx, fasthttp.StatusOK, result)
}

// checkSuitabilityHandler assesses a single medication for the caller
func (s *Server) checkSuitabilityHandler(ctx *fasthttp.RequestCtx) {
	identity, ok := s.identityFromCtx(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	var req models.SuitabilityRequest
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	result, err := s.analysisService.CheckSuitability(ctx, identity, &req)
	if err != nil {
		s.sendAppError(ctx, err, "Failed to check medication suitability")
		return
	}

	s.sendJSON(ctx, fasthttp.StatusOK, result)
}

// historyHandler returns the caller's analysis history, most recent
// first. A user with no history gets an empty list; a session whose
// identity resolves to no stored user gets a 404.
func (s *Server) historyHandler(ctx *fasthttp.RequestCtx) {
	identity, ok := s.identityFromCtx(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	history, err := s.userService.GetHistory(ctx, identity)
	if err != nil {
		s.sendAppError(ctx, err, "Failed to fetch history")
		return
	}

	s.sendJSON(ctx, fasthttp.StatusOK, models.HistoryResponse{
		History: history,
		Message: "History retrieved successfully",
	})
}
