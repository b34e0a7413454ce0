package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
	"trustlend/internal/services"
)

// TrustHandler exposes trust standing to borrowers and the administrative
// transitions to business owners.
type TrustHandler struct {
	trustService  services.TrustServicer
	lenderService services.LenderServicer
	auditService  services.AuditServicer
}

// NewTrustHandler creates a new TrustHandler
func NewTrustHandler(trustService services.TrustServicer, lenderService services.LenderServicer, auditService services.AuditServicer) *TrustHandler {
	return &TrustHandler{trustService: trustService, lenderService: lenderService, auditService: auditService}
}

// GetStanding returns the borrower's trust standing at a business
// @Summary     Get trust standing
// @Description Get the authenticated borrower's trust record and ceiling at a business
// @Tags        trust
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Success     200 {object} map[string]interface{} "Trust record and borrowing limit"
// @Failure     404 {object} ErrorResponse "Business not found"
// @Router      /businesses/{id}/trust [get]
func (h *TrustHandler) GetStanding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	businessID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.trustService.GetRecord(userID, businessID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit, err := h.trustService.GetMaxBorrowable(userID, businessID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record": record,
		"limit":  limit,
	})
}

// transition runs one owner-gated administrative transition on the
// borrower's record at the owner's business.
func (h *TrustHandler) transition(c *gin.Context, action string, apply func(borrowerID, businessID uint) (*models.TrustRecord, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	businessID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	borrowerID, err := parsePathID(c, "borrowerID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Only the business owner may change a borrower's standing.
	if _, err := h.lenderService.GetOwnedBusiness(userID, businessID); err != nil {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	record, err := apply(borrowerID, businessID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "trust_record", record.ID, c.ClientIP(), map[string]any{
		"borrower_id": borrowerID,
		"business_id": businessID,
		"status":      record.Status,
	})

	c.JSON(http.StatusOK, gin.H{"record": record})
}

// Ban blocks a borrower at the owner's business
// @Summary     Ban a borrower
// @Description Block a borrower at the owner's business; their ceiling drops to zero
// @Tags        trust
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Param       borrowerID path int true "Borrower ID"
// @Success     200 {object} map[string]interface{} "Updated record"
// @Failure     403 {object} ErrorResponse "Not the business owner"
// @Failure     409 {object} ErrorResponse "Concurrent transition"
// @Router      /businesses/{id}/borrowers/{borrowerID}/ban [post]
func (h *TrustHandler) Ban(c *gin.Context) {
	h.transition(c, "trust.ban", h.trustService.Ban)
}

// Suspend reversibly blocks a borrower at the owner's business
// @Summary     Suspend a borrower
// @Description Reversibly block a borrower at the owner's business
// @Tags        trust
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Param       borrowerID path int true "Borrower ID"
// @Success     200 {object} map[string]interface{} "Updated record"
// @Failure     403 {object} ErrorResponse "Not the business owner"
// @Failure     409 {object} ErrorResponse "Concurrent transition"
// @Router      /businesses/{id}/borrowers/{borrowerID}/suspend [post]
func (h *TrustHandler) Suspend(c *gin.Context) {
	h.transition(c, "trust.suspend", h.trustService.Suspend)
}

// Reinstate lifts a suspension or ban
// @Summary     Reinstate a borrower
// @Description Lift a suspension or ban; standing is recomputed from the completed-loan count
// @Tags        trust
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Param       borrowerID path int true "Borrower ID"
// @Success     200 {object} map[string]interface{} "Updated record"
// @Failure     403 {object} ErrorResponse "Not the business owner"
// @Failure     409 {object} ErrorResponse "Concurrent transition"
// @Router      /businesses/{id}/borrowers/{borrowerID}/reinstate [post]
func (h *TrustHandler) Reinstate(c *gin.Context) {
	h.transition(c, "trust.reinstate", h.trustService.Reinstate)
}

// Reset re-zeroes a borrower's progress after a default
// @Summary     Reset a borrower's trust
// @Description Re-zero a borrower's progress at the owner's business and count a default
// @Tags        trust
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Param       borrowerID path int true "Borrower ID"
// @Success     200 {object} map[string]interface{} "Updated record"
// @Failure     403 {object} ErrorResponse "Not the business owner"
// @Failure     409 {object} ErrorResponse "Concurrent transition"
// @Router      /businesses/{id}/borrowers/{borrowerID}/reset [post]
func (h *TrustHandler) Reset(c *gin.Context) {
	h.transition(c, "trust.reset", h.trustService.ResetOnDefault)
}
