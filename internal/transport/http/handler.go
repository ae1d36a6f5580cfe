// Package httptransport is the thin reference surface over the trust engine.
// It carries no protocol logic of its own: every handler decodes a request,
// calls the core, and encodes the core's output.
package httptransport

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	contracts "veritas/contracts/vc"
	"veritas/internal/auditlog"
	auditmetrics "veritas/internal/auditlog/metrics"
	"veritas/internal/evidence"
	"veritas/internal/identity/credential"
	"veritas/internal/identity/disclosure"
	"veritas/internal/issuance"
	issuancemetrics "veritas/internal/issuance/metrics"
	"veritas/internal/issuance/statuslist"
	statusstore "veritas/internal/issuance/statuslist/store"
	"veritas/internal/sentinel"
	"veritas/internal/verification"
	verificationmetrics "veritas/internal/verification/metrics"
	dErrors "veritas/pkg/domain-errors"
)

// DefaultStatusListID is the list credentials are registered on when the
// caller does not manage lists explicitly.
const DefaultStatusListID = "default"

// Handler exposes the core engines over JSON. All state it touches lives in
// the injected collaborators.
type Handler struct {
	logger   *slog.Logger
	meta     issuance.IssuerMetadata
	signer   *disclosure.Signer
	issuerID string

	verifierID string
	receiptKey ed25519.PrivateKey

	lists    *statusstore.Memory
	recorder *auditlog.Recorder
	pipeline *evidence.Pipeline

	issuanceMetrics     *issuancemetrics.Metrics
	verificationMetrics *verificationmetrics.Metrics
	auditMetrics        *auditmetrics.Metrics
}

// Deps groups the collaborators the handler needs.
type Deps struct {
	Logger              *slog.Logger
	Meta                issuance.IssuerMetadata
	Signer              *disclosure.Signer
	IssuerID            string
	VerifierID          string
	ReceiptKey          ed25519.PrivateKey
	Lists               *statusstore.Memory
	Recorder            *auditlog.Recorder
	Pipeline            *evidence.Pipeline
	IssuanceMetrics     *issuancemetrics.Metrics
	VerificationMetrics *verificationmetrics.Metrics
	AuditMetrics        *auditmetrics.Metrics
}

// NewHandler wires a handler from its dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		logger:              d.Logger,
		meta:                d.Meta,
		signer:              d.Signer,
		issuerID:            d.IssuerID,
		verifierID:          d.VerifierID,
		receiptKey:          d.ReceiptKey,
		lists:               d.Lists,
		recorder:            d.Recorder,
		pipeline:            d.Pipeline,
		issuanceMetrics:     d.IssuanceMetrics,
		verificationMetrics: d.VerificationMetrics,
		auditMetrics:        d.AuditMetrics,
	}
}

func (h *Handler) handleIssuerMetadata(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.meta)
}

type offerRequest struct {
	CredentialTypes []string `json:"credentials"`
	UserPinRequired bool     `json:"user_pin_required"`
}

func (h *Handler) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts := []issuance.OfferOption{}
	if req.UserPinRequired {
		opts = append(opts, issuance.WithUserPin())
	}
	offer := issuance.NewCredentialOffer(h.meta.CredentialIssuer, req.CredentialTypes, uuid.NewString(), opts...)
	h.issuanceMetrics.OffersCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, offer)
}

func (h *Handler) handleToken(w http.ResponseWriter, _ *http.Request) {
	token, err := issuance.NewTokenResponse()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	var req issuance.CredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if problems := issuance.ValidateCredentialRequest(req, h.meta.FormatsSupported); len(problems) > 0 {
		h.issuanceMetrics.RequestRejectionsTotal.Inc()
		writeProblems(w, problems)
		return
	}

	cred := credential.New(h.issuerID, req.Subject, credential.WithTypes(req.Types...))

	// The index assignment must be atomic with the save: a Find/Add/Save
	// sequence would let concurrent issuances read the same snapshot and
	// assign the same bit. A signing failure below leaves the entry
	// allocated; indices are never reclaimed.
	var entry statuslist.Entry
	list, err := h.lists.Update(r.Context(), DefaultStatusListID, func(l statuslist.List) (statuslist.List, error) {
		l, entry = statuslist.Add(l, cred.ID)
		return l, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	cred.Status = &credential.Status{
		ID:              h.meta.CredentialIssuer + "/status-lists/" + list.ID + "#" + cred.ID,
		Type:            "BitstringStatusListEntry",
		StatusPurpose:   string(list.Purpose),
		StatusListIndex: entry.Index,
	}

	blind := make([]string, 0, len(req.Subject))
	for name := range req.Subject {
		blind = append(blind, name)
	}
	envelope, err := h.signer.Issue(cred, blind)
	if err != nil {
		writeError(w, err)
		return
	}
	compact, err := envelope.Serialize()
	if err != nil {
		writeError(w, err)
		return
	}

	h.issuanceMetrics.CredentialsIssuedTotal.WithLabelValues(string(req.Format)).Inc()
	h.issuanceMetrics.StatusListEntriesActive.Set(float64(h.lists.ActiveCount(r.Context())))
	h.recorder.Record(r.Context(), auditlog.EntryIssuance, h.issuerID, "credential_issued", cred.ID, map[string]any{
		"types":           req.Types,
		"format":          string(req.Format),
		"statusListIndex": entry.Index,
	})

	writeJSON(w, http.StatusCreated, contracts.CredentialResponse{
		Format:     string(req.Format),
		Credential: compact,
	})
}

func (h *Handler) handleStatusList(w http.ResponseWriter, r *http.Request) {
	list, err := h.lists.Find(r.Context(), chi.URLParam(r, "listID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.StatusListView{
		ID:          list.ID,
		Issuer:      list.Issuer,
		Purpose:     string(list.Purpose),
		EncodedList: statuslist.Encode(list),
		Size:        len(list.Entries),
	})
}

type statusChangeRequest struct {
	CredentialID string `json:"credentialId"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	h.transitionStatus(w, r, statuslist.Revoke, auditlog.EntryRevocation, "credential_revoked")
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.transitionStatus(w, r, statuslist.Suspend, auditlog.EntrySuspension, "credential_suspended")
}

func (h *Handler) transitionStatus(
	w http.ResponseWriter,
	r *http.Request,
	transition func(statuslist.List, string) (statuslist.List, error),
	entryType, action string,
) {
	var req statusChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	list, err := h.lists.Update(r.Context(), chi.URLParam(r, "listID"), func(l statuslist.List) (statuslist.List, error) {
		return transition(l, req.CredentialID)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.issuanceMetrics.StatusTransitionsTotal.WithLabelValues(action).Inc()
	h.issuanceMetrics.StatusListEntriesActive.Set(float64(h.lists.ActiveCount(r.Context())))
	h.recorder.Record(r.Context(), entryType, list.Issuer, action, req.CredentialID, map[string]any{
		"listId": list.ID,
	})
	writeJSON(w, http.StatusOK, map[string]string{"encodedList": statuslist.Encode(list)})
}

type presentationRequestBody struct {
	PresentationDefinition verification.PresentationDefinition `json:"presentation_definition"`
	State                  string                              `json:"state,omitempty"`
}

func (h *Handler) handleCreatePresentationRequest(w http.ResponseWriter, r *http.Request) {
	var req presentationRequestBody
	if !decodeJSON(w, r, &req) {
		return
	}
	opts := []verification.RequestOption{}
	if req.State != "" {
		opts = append(opts, verification.WithState(req.State))
	}
	writeJSON(w, http.StatusCreated, verification.NewAuthorizationRequest(h.verifierID, req.PresentationDefinition, opts...))
}

type verifyRequest struct {
	Response       verification.AuthorizationResponse `json:"response"`
	ExpectedState  string                              `json:"expected_state"`
	ExpectedNonce  string                              `json:"expected_nonce"`
	SubjectDID     string                              `json:"subject_did"`
	Rules          []verification.Rule                 `json:"rules"`
	Data           map[string]any                      `json:"data"`
	EvidenceHashes []string                            `json:"evidence_hashes"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if problems := verification.ValidateAuthorizationResponse(req.Response, req.ExpectedState, req.ExpectedNonce); len(problems) > 0 {
		h.verificationMetrics.ResponseRejectionsTotal.Inc()
		writeProblems(w, problems)
		return
	}

	started := time.Now()
	outcome := verification.EvaluateAll(req.Rules, req.Data)
	h.verificationMetrics.EvaluationDuration.Observe(time.Since(started).Seconds())
	h.verificationMetrics.EvaluationsTotal.WithLabelValues(string(outcome.Decision)).Inc()
	for _, result := range outcome.Results {
		if !result.Passed {
			h.verificationMetrics.RuleFailuresTotal.WithLabelValues(string(result.Rule.Operator)).Inc()
		}
	}

	policies := make([]string, len(req.Rules))
	for i, rule := range req.Rules {
		policies[i] = rule.Field + " " + string(rule.Operator)
	}
	receipt := verification.NewReceipt(h.verifierID, req.SubjectDID, policies, outcome.Decision, req.EvidenceHashes)
	receipt, err := verification.SignReceipt(receipt, h.receiptKey)
	if err != nil {
		writeError(w, err)
		return
	}
	h.verificationMetrics.ReceiptsIssuedTotal.Inc()

	h.recorder.Record(r.Context(), auditlog.EntryVerification, h.verifierID, "presentation_verified", req.SubjectDID, map[string]any{
		"decision":  string(outcome.Decision),
		"receiptId": receipt.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"outcome": outcome,
		"receipt": receipt,
	})
}

type evidenceRequest struct {
	Document     string         `json:"document"`
	DocumentType string         `json:"documentType"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (h *Handler) handleEvaluateEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Document)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "document is not base64"))
		return
	}

	report, err := h.pipeline.Run(r.Context(), evidence.Input{
		Bytes:        raw,
		DocumentType: req.DocumentType,
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.recorder.Record(r.Context(), auditlog.EntryEvidence, h.verifierID, "evidence_evaluated", report.Fingerprint, map[string]any{
		"documentType":   req.DocumentType,
		"riskScore":      report.RiskScore,
		"reviewRequired": report.ReviewRequired,
	})

	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAuditRoot(w http.ResponseWriter, _ *http.Request) {
	root, err := h.recorder.Log().Root()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"root": root,
		"size": h.recorder.Log().Size(),
	})
}

func (h *Handler) handleAuditProof(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	proof, err := h.recorder.Log().InclusionProof(index)
	if err != nil {
		writeError(w, err)
		return
	}
	h.auditMetrics.ProofsGeneratedTotal.Inc()
	steps := make([]contracts.ProofStep, len(proof.Path))
	for i, step := range proof.Path {
		steps[i] = contracts.ProofStep{Hash: step.Hash, Position: string(step.Position)}
	}
	writeJSON(w, http.StatusOK, contracts.InclusionProofView{
		Index:    proof.Index,
		LeafHash: proof.LeafHash,
		Path:     steps,
		Root:     proof.Root,
	})
}

func (h *Handler) handleAuditIntegrity(w http.ResponseWriter, _ *http.Request) {
	violations := h.recorder.Log().VerifyIntegrity(0, -1)
	h.auditMetrics.IntegrityScansTotal.Inc()
	for _, v := range violations {
		h.auditMetrics.ViolationsTotal.WithLabelValues(string(v.Kind)).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "request body is not valid JSON"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblems(w http.ResponseWriter, problems []string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"errors": problems,
	})
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := dErrors.CodeInternal

	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		code = domainErr.Code
		switch domainErr.Code {
		case dErrors.CodeNotFound:
			status = http.StatusNotFound
		case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeInvalidDID, dErrors.CodeInvalidDisclosure, dErrors.CodeInvalidToken:
			status = http.StatusBadRequest
		case dErrors.CodeValidation:
			status = http.StatusUnprocessableEntity
		case dErrors.CodeConflict:
			status = http.StatusConflict
		}
	case errors.Is(err, sentinel.ErrNotFound):
		status, code = http.StatusNotFound, dErrors.CodeNotFound
	}

	writeJSON(w, status, map[string]string{
		"code":    string(code),
		"message": err.Error(),
	})
}

func pathIndex(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || index < 0 {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
