package httpapi

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/engine"
	"github.com/abhisek/recall/internal/mastery"
	"github.com/abhisek/recall/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Handler serves the engine's operations.
type Handler struct {
	engine *engine.Engine
	store  Pinger
}

func (h *Handler) Health(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			RespondError(c, http.StatusServiceUnavailable, "unavailable", err)
			return
		}
	}
	RespondOK(c, gin.H{"status": "ok"})
}

type batchError struct {
	Index   int      `json:"index"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type ingestResponse struct {
	Recorded []*attempt.Event `json:"recorded"`
	Rejected []batchError     `json:"rejected,omitempty"`
}

// respondBadBody answers 413 when the body exceeded the limit and 400 for
// anything else wrong with it.
func respondBadBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(c, http.StatusRequestEntityTooLarge, CodeTooLarge, err)
		return
	}
	RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
}

func (h *Handler) IngestAttempts(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBadBody(c, err)
		return
	}
	res, err := h.engine.IngestJSON(c.Request.Context(), body)
	if err != nil {
		RespondFromError(c, err)
		return
	}

	out := ingestResponse{Recorded: res.Recorded}
	for i, e := range res.Errors {
		be := batchError{Index: i, Message: e.Error()}
		var verr *attempt.ValidationError
		if errors.As(e, &verr) {
			for _, p := range verr.Problems {
				be.Details = append(be.Details, p.String())
			}
		}
		out.Rejected = append(out.Rejected, be)
	}
	sort.Slice(out.Rejected, func(i, j int) bool { return out.Rejected[i].Index < out.Rejected[j].Index })

	if len(res.Recorded) == 0 && len(res.Errors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    APIError{Message: "no attempt recorded", Code: CodeValidation},
			"rejected": out.Rejected,
		})
		return
	}
	if out.Recorded == nil {
		out.Recorded = []*attempt.Event{}
	}
	c.JSON(http.StatusCreated, out)
}

type catalogRequest struct {
	Items []store.CatalogItem `json:"items" binding:"required"`
}

func (h *Handler) UpsertCatalog(c *gin.Context) {
	var req catalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}
	if err := h.engine.UpsertCatalog(c.Request.Context(), req.Items); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"upserted": len(req.Items)})
}

type masteryResponse struct {
	mastery.Record
	Level mastery.Level `json:"level"`
}

func (h *Handler) Mastery(c *gin.Context) {
	rec, err := h.engine.Mastery(c.Request.Context(), c.Param("learner"), c.Param("topic"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, masteryResponse{Record: rec, Level: rec.Level()})
}

func (h *Handler) Weaknesses(c *gin.Context) {
	ws, err := h.engine.Weaknesses(c.Request.Context(), c.Param("learner"), c.Query("document"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	if ws == nil {
		ws = []mastery.Weakness{}
	}
	RespondOK(c, gin.H{"weaknesses": ws})
}

func (h *Handler) Targeting(c *gin.Context) {
	t, err := h.engine.Targeting(c.Request.Context(), c.Param("learner"), c.Query("document"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, t)
}

func (h *Handler) DueReviews(c *gin.Context) {
	var now time.Time
	if raw := c.Query("now"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
			return
		}
		now = t
	}
	cards, err := h.engine.DueReviewStatus(c.Request.Context(), c.Param("learner"), now)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"due": cards, "count": len(cards)})
}

func (h *Handler) ReviewSchedule(c *gin.Context) {
	s, err := h.engine.ReviewSchedule(c.Request.Context(), c.Param("learner"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, s)
}

type submitRequest struct {
	ItemID           string  `json:"item_id" binding:"required"`
	Quality          *int    `json:"quality" binding:"required"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
}

func (h *Handler) SubmitReview(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}
	card, err := h.engine.SubmitReview(c.Request.Context(), c.Param("learner"), req.ItemID, *req.Quality, req.TimeTakenSeconds)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, card)
}

type rescheduleRequest struct {
	DueAt time.Time `json:"due_at" binding:"required"`
}

func (h *Handler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}
	card, err := h.engine.Reschedule(c.Request.Context(), c.Param("learner"), c.Param("item"), req.DueAt)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, card)
}

func (h *Handler) Enroll(c *gin.Context) {
	card, created, err := h.engine.Enroll(c.Request.Context(), c.Param("learner"), c.Param("item"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, card)
}

func (h *Handler) ForgettingCurve(c *gin.Context) {
	res, err := h.engine.ForgettingCurve(c.Request.Context(), c.Param("learner"), c.Param("topic"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *Handler) NeedsReview(c *gin.Context) {
	rs, err := h.engine.NeedsReviewSweep(c.Request.Context(), c.Param("learner"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"needs_review": rs, "count": len(rs)})
}

func (h *Handler) Velocity(c *gin.Context) {
	vs, err := h.engine.Velocity(c.Request.Context(), c.Param("learner"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	if vs == nil {
		vs = []mastery.Velocity{}
	}
	RespondOK(c, gin.H{"topics": vs})
}

func (h *Handler) TopicVelocity(c *gin.Context) {
	v, err := h.engine.TopicVelocity(c.Request.Context(), c.Param("learner"), c.Param("topic"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, v)
}

func (h *Handler) Behavior(c *gin.Context) {
	p, err := h.engine.Behavior(c.Request.Context(), c.Param("learner"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, p)
}

func (h *Handler) Readiness(c *gin.Context) {
	rep, err := h.engine.Readiness(c.Request.Context(), c.Param("learner"), c.Query("document"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, rep)
}

func (h *Handler) ExplanationContext(c *gin.Context) {
	ec, err := h.engine.ExplanationContext(c.Request.Context(), c.Param("learner"), c.Param("id"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, ec)
}
