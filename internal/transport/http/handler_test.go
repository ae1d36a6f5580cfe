package httptransport

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	contracts "veritas/contracts/vc"
	"veritas/internal/auditlog"
	auditmetrics "veritas/internal/auditlog/metrics"
	"veritas/internal/evidence"
	"veritas/internal/identity/did"
	"veritas/internal/identity/disclosure"
	"veritas/internal/issuance"
	issuancemetrics "veritas/internal/issuance/metrics"
	"veritas/internal/issuance/statuslist"
	statusstore "veritas/internal/issuance/statuslist/store"
	"veritas/internal/verification"
	verificationmetrics "veritas/internal/verification/metrics"
)

// HandlerSuite drives the whole trust flow over the HTTP surface: issue a
// selectively disclosable credential, revoke it, verify a presentation, and
// prove the audit trail. Metrics register against the global registry, so
// they are created once for the suite.
type HandlerSuite struct {
	suite.Suite

	issuerPub  ed25519.PublicKey
	receiptPub ed25519.PublicKey
	issuerDID  string

	router   http.Handler
	recorder *auditlog.Recorder

	issuanceMetrics     *issuancemetrics.Metrics
	verificationMetrics *verificationmetrics.Metrics
	auditMetrics        *auditmetrics.Metrics
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupSuite() {
	s.issuanceMetrics = issuancemetrics.New()
	s.verificationMetrics = verificationmetrics.New()
	s.auditMetrics = auditmetrics.New()
}

func (s *HandlerSuite) SetupTest() {
	issuerPub, issuerKey, err := ed25519.GenerateKey(nil)
	s.Require().NoError(err)
	receiptPub, receiptKey, err := ed25519.GenerateKey(nil)
	s.Require().NoError(err)
	s.issuerPub = issuerPub
	s.receiptPub = receiptPub
	s.issuerDID = did.CreateKey(issuerPub)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lists := statusstore.NewMemory()
	s.Require().NoError(lists.Save(context.Background(),
		statuslist.New(DefaultStatusListID, s.issuerDID, statuslist.PurposeRevocation)))

	s.recorder = auditlog.NewRecorder(auditlog.NewLog(), logger, s.auditMetrics)

	h := NewHandler(Deps{
		Logger:              logger,
		Meta:                issuance.NewIssuerMetadata("https://issuer.example", issuance.WithFormats(issuance.FormatSDJWT)),
		Signer:              disclosure.NewSigner(s.issuerDID, issuerKey),
		IssuerID:            s.issuerDID,
		VerifierID:          "did:web:verifier.example",
		ReceiptKey:          receiptKey,
		Lists:               lists,
		Recorder:            s.recorder,
		Pipeline:            evidence.New(evidence.NewTextExtractor(), evidence.WithMinSize(8)),
		IssuanceMetrics:     s.issuanceMetrics,
		VerificationMetrics: s.verificationMetrics,
		AuditMetrics:        s.auditMetrics,
	})
	s.router = NewRouter(h, logger)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dst))
}

func (s *HandlerSuite) issueCredential(subject map[string]any) contracts.CredentialResponse {
	rec := s.do(http.MethodPost, "/issuance/credentials", issuance.CredentialRequest{
		Format:  issuance.FormatSDJWT,
		Types:   []string{"VerifiableCredential", "UniversityDegreeCredential"},
		Subject: subject,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var resp contracts.CredentialResponse
	s.decode(rec, &resp)
	return resp
}

func (s *HandlerSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestIssuerMetadata() {
	rec := s.do(http.MethodGet, "/issuer/metadata", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var meta issuance.IssuerMetadata
	s.decode(rec, &meta)
	s.Equal("https://issuer.example", meta.CredentialIssuer)
	s.Equal([]issuance.Format{issuance.FormatSDJWT}, meta.FormatsSupported)
}

func (s *HandlerSuite) TestOfferAndToken() {
	rec := s.do(http.MethodPost, "/issuance/offers", map[string]any{
		"credentials":       []string{"UniversityDegreeCredential"},
		"user_pin_required": true,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var offer issuance.CredentialOffer
	s.decode(rec, &offer)
	s.NotEmpty(offer.Grants.PreAuthorizedCode.Code)
	s.True(offer.Grants.PreAuthorizedCode.UserPinRequired)

	rec = s.do(http.MethodPost, "/issuance/token", map[string]any{})
	s.Require().Equal(http.StatusOK, rec.Code)

	var token issuance.TokenResponse
	s.decode(rec, &token)
	s.NotEmpty(token.AccessToken)
	s.Equal("bearer", token.TokenType)
}

func (s *HandlerSuite) TestIssueRejectsInvalidRequest() {
	rec := s.do(http.MethodPost, "/issuance/credentials", issuance.CredentialRequest{
		Format: issuance.FormatJWTVC,
	})
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Errors []string `json:"errors"`
	}
	s.decode(rec, &body)
	s.Len(body.Errors, 2, "unsupported format and missing types")
}

func (s *HandlerSuite) TestIssueRevokeAndProveFlow() {
	resp := s.issueCredential(map[string]any{"name": "Alice", "degree": "BSc"})
	s.Equal(string(issuance.FormatSDJWT), resp.Format)

	env, err := disclosure.Parse(resp.Credential)
	s.Require().NoError(err)
	s.Len(env.Disclosures, 2, "every subject claim is blinded")

	claims, err := disclosure.VerifyCore(env.SignedCore, s.issuerPub)
	s.Require().NoError(err)
	s.Require().NotNil(claims.Credential.Status)
	s.Equal(0, claims.Credential.Status.StatusListIndex)
	credentialID := claims.Credential.ID

	s.Run("holder presents only the name", func() {
		filtered := env.Filter([]string{"name"})
		s.Len(filtered.Disclosures, 1)
		ok, err := disclosure.MatchesCore(claims, filtered.Disclosures)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("status list starts all active", func() {
		rec := s.do(http.MethodGet, "/status-lists/default", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var view contracts.StatusListView
		s.decode(rec, &view)
		s.Equal(1, view.Size)
		set, err := statuslist.IsSet(view.EncodedList, 0)
		s.Require().NoError(err)
		s.False(set)
	})

	s.Run("revocation flips the bit", func() {
		rec := s.do(http.MethodPost, "/status-lists/default/revoke", map[string]string{"credentialId": credentialID})
		s.Require().Equal(http.StatusOK, rec.Code)
		var body map[string]string
		s.decode(rec, &body)
		set, err := statuslist.IsSet(body["encodedList"], 0)
		s.Require().NoError(err)
		s.True(set)
	})

	s.Run("audit trail proves both events", func() {
		rec := s.do(http.MethodGet, "/audit/root", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var rootBody struct {
			Root string `json:"root"`
			Size int    `json:"size"`
		}
		s.decode(rec, &rootBody)
		s.Equal(2, rootBody.Size, "one issuance and one revocation entry")

		rec = s.do(http.MethodGet, "/audit/entries/0/proof", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var proof contracts.InclusionProofView
		s.decode(rec, &proof)
		s.Equal(rootBody.Root, proof.Root)

		steps := make([]auditlog.ProofStep, len(proof.Path))
		for i, step := range proof.Path {
			steps[i] = auditlog.ProofStep{Hash: step.Hash, Position: auditlog.Position(step.Position)}
		}
		s.True(auditlog.VerifyInclusion(proof.LeafHash, steps, proof.Root))

		rec = s.do(http.MethodGet, "/audit/integrity", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var integrity struct {
			Valid bool `json:"valid"`
		}
		s.decode(rec, &integrity)
		s.True(integrity.Valid)
	})
}

// TestConcurrentIssuance pins the atomicity of index assignment: parallel
// issuance requests against the shared default list must each get their own
// bit, with no entry lost to a stale snapshot being saved last.
func (s *HandlerSuite) TestConcurrentIssuance() {
	raw, err := json.Marshal(issuance.CredentialRequest{
		Format:  issuance.FormatSDJWT,
		Types:   []string{"VerifiableCredential", "UniversityDegreeCredential"},
		Subject: map[string]any{"name": "Alice"},
	})
	s.Require().NoError(err)

	const n = 8
	codes := make([]int, n)
	bodies := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/issuance/credentials", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			codes[i] = rec.Code
			bodies[i] = rec.Body.Bytes()
		}(i)
	}
	wg.Wait()

	seen := make(map[int]struct{})
	for i := 0; i < n; i++ {
		s.Require().Equal(http.StatusCreated, codes[i], string(bodies[i]))
		var resp contracts.CredentialResponse
		s.Require().NoError(json.Unmarshal(bodies[i], &resp))
		claims, err := disclosure.VerifyCore(mustParseCore(s, resp.Credential), s.issuerPub)
		s.Require().NoError(err)
		s.Require().NotNil(claims.Credential.Status)
		seen[claims.Credential.Status.StatusListIndex] = struct{}{}
	}
	s.Len(seen, n, "every credential must hold a distinct bit index")

	rec := s.do(http.MethodGet, "/status-lists/default", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var view contracts.StatusListView
	s.decode(rec, &view)
	s.Equal(n, view.Size, "the stored list must retain every concurrent entry")
}

func (s *HandlerSuite) TestActiveEntriesGauge() {
	resp := s.issueCredential(map[string]any{"name": "Alice"})
	s.Equal(1.0, testutil.ToFloat64(s.issuanceMetrics.StatusListEntriesActive))

	s.issueCredential(map[string]any{"name": "Bob"})
	s.Equal(2.0, testutil.ToFloat64(s.issuanceMetrics.StatusListEntriesActive))

	claims, err := disclosure.VerifyCore(mustParseCore(s, resp.Credential), s.issuerPub)
	s.Require().NoError(err)
	rec := s.do(http.MethodPost, "/status-lists/default/revoke", map[string]string{"credentialId": claims.Credential.ID})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1.0, testutil.ToFloat64(s.issuanceMetrics.StatusListEntriesActive))
}

func (s *HandlerSuite) TestRevokeUnknownCredential() {
	rec := s.do(http.MethodPost, "/status-lists/default/revoke", map[string]string{"credentialId": "absent"})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestStatusListNotFound() {
	rec := s.do(http.MethodGet, "/status-lists/absent", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestSuspend() {
	resp := s.issueCredential(map[string]any{"name": "Alice"})
	claims, err := disclosure.VerifyCore(mustParseCore(s, resp.Credential), s.issuerPub)
	s.Require().NoError(err)

	rec := s.do(http.MethodPost, "/status-lists/default/suspend", map[string]string{"credentialId": claims.Credential.ID})
	s.Require().Equal(http.StatusOK, rec.Code)
	var body map[string]string
	s.decode(rec, &body)
	set, err := statuslist.IsSet(body["encodedList"], 0)
	s.Require().NoError(err)
	s.True(set)
}

func (s *HandlerSuite) TestPresentationRequestAndVerify() {
	rec := s.do(http.MethodPost, "/verification/requests", map[string]any{
		"presentation_definition": verification.PresentationDefinition{
			ID: "pd-1",
			InputDescriptors: []verification.InputDescriptor{
				{ID: "degree", Constraints: verification.Constraints{}},
			},
		},
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var authReq verification.AuthorizationRequest
	s.decode(rec, &authReq)
	s.Equal("did:web:verifier.example", authReq.VerifierID)
	s.NotEmpty(authReq.Nonce)

	verifyBody := verifyRequest{
		Response: verification.AuthorizationResponse{
			VPToken: "core~",
			State:   authReq.State,
			PresentationSubmission: &verification.PresentationSubmission{
				ID:            "sub-1",
				DefinitionID:  "pd-1",
				DescriptorMap: []verification.DescriptorMapEntry{{ID: "degree", Format: "vc+sd-jwt", Path: "$"}},
			},
		},
		ExpectedState: authReq.State,
		ExpectedNonce: authReq.Nonce,
		SubjectDID:    "did:key:zSubject",
		Rules: []verification.Rule{
			{Field: "degree", Operator: verification.OpEquals, Value: "BSc"},
		},
		Data:           map[string]any{"degree": "BSc"},
		EvidenceHashes: []string{"hash-1"},
	}
	rec = s.do(http.MethodPost, "/verification/verify", verifyBody)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Outcome verification.Outcome `json:"outcome"`
		Receipt verification.Receipt `json:"receipt"`
	}
	s.decode(rec, &result)
	s.Equal(verification.DecisionApproved, result.Outcome.Decision)

	ok, err := verification.VerifyReceiptSignature(result.Receipt, s.receiptPub)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal([]string{"hash-1"}, result.Receipt.EvidenceHashes)

	s.Run("stale state is rejected with all problems", func() {
		verifyBody.Response.State = "stale"
		rec := s.do(http.MethodPost, "/verification/verify", verifyBody)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}

func (s *HandlerSuite) TestEvaluateEvidence() {
	document := base64.StdEncoding.EncodeToString([]byte("name: Alice\nnumber: P1234567\nissued by the registry office\n"))

	rec := s.do(http.MethodPost, "/evidence/evaluate", map[string]any{
		"document":     document,
		"documentType": "passport",
		"metadata":     map[string]any{"producer": "scanner-v2"},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var report evidence.Report
	s.decode(rec, &report)
	s.Equal(100.0, report.Quality.Score)
	s.NotEmpty(report.Fingerprint)
	s.False(report.ReviewRequired)

	s.Run("evaluation is recorded in the audit log", func() {
		entry, err := s.recorder.Log().EntryAt(0)
		s.Require().NoError(err)
		s.Equal(auditlog.EntryEvidence, entry.Type)
		s.Equal(report.Fingerprint, entry.Resource)
	})

	s.Run("bad base64 is rejected", func() {
		rec := s.do(http.MethodPost, "/evidence/evaluate", map[string]any{"document": "!!!"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestAuditProofBadIndex() {
	s.Run("non-numeric", func() {
		rec := s.do(http.MethodGet, "/audit/entries/abc/proof", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("digit string exceeding the int range", func() {
		rec := s.do(http.MethodGet, "/audit/entries/99999999999999999999/proof", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("negative", func() {
		rec := s.do(http.MethodGet, "/audit/entries/-1/proof", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestBadJSONBody() {
	req := httptest.NewRequest(http.MethodPost, "/issuance/offers", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func mustParseCore(s *HandlerSuite, compact string) string {
	env, err := disclosure.Parse(compact)
	s.Require().NoError(err)
	return env.SignedCore
}
