package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests code propagation through wrapping, which every
// transport-layer status mapping relies on.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestNew() {
	err := New(CodeNotFound, "credential not found")
	s.Equal("credential not found", err.Error())
	s.True(HasCode(err, CodeNotFound))
	s.False(HasCode(err, CodeConflict))
}

func (s *DomainErrorsSuite) TestMessageFallsBackToCode() {
	err := &Error{Code: CodeInternal}
	s.Equal(string(CodeInternal), err.Error())
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("plain error gets the new code", func() {
		err := Wrap(errors.New("disk full"), CodeInternal, "save failed")
		s.True(HasCode(err, CodeInternal))
		s.Equal("save failed", err.Error())
	})

	s.Run("existing domain code is preserved", func() {
		inner := New(CodeInvalidDID, "not a did")
		err := Wrap(inner, CodeInternal, "resolution failed")
		s.True(HasCode(err, CodeInvalidDID), "the original code must survive wrapping")
	})

	s.Run("unwrap reaches the cause", func() {
		cause := errors.New("root cause")
		err := Wrap(fmt.Errorf("context: %w", cause), CodeBadRequest, "bad input")
		s.True(errors.Is(err, cause))
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	a := New(CodeValidation, "one problem")
	b := New(CodeValidation, "another problem")
	s.True(errors.Is(a, b))
	s.False(errors.Is(a, New(CodeConflict, "different")))
}

func (s *DomainErrorsSuite) TestHasCodeOnForeignError() {
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.False(HasCode(nil, CodeInternal))
}
