package filter

import (
	"strings"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLexicon struct {
	mock.Mock
}

func (m *mockLexicon) IsProfane(text string) bool {
	return m.Called(text).Bool(0)
}

func (m *mockLexicon) ExtractProfanity(text string) string {
	return m.Called(text).String(0)
}

// substringLexicon flags any text containing one of its words.
type substringLexicon []string

func (l substringLexicon) IsProfane(text string) bool {
	return l.ExtractProfanity(text) != ""
}

func (l substringLexicon) ExtractProfanity(text string) string {
	for _, w := range l {
		if strings.Contains(text, w) {
			return w
		}
	}
	return ""
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"h3ll0 w0rld", "hello world"},
		{"HéLLö   Wörld!!", "hello worldii"},
		{"b@d $tuff", "bad stuff"},
		{"  spaced\t\nout  ", "spaced out"},
		{"dots...and,commas", "dots and commas"},
		{"7h1$ 1$ 4 7€$7", "this is a test"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCheckFlagsLexiconMatch(t *testing.T) {
	lex := new(mockLexicon)
	lex.On("IsProfane", "you are bad").Return(true)
	lex.On("ExtractProfanity", "you are bad").Return("bad")

	res := New(lex, nil).Check("You are B4D")

	assert.True(t, res.Flagged)
	assert.Equal(t, "bad", res.Match)
	assert.Equal(t, "you are bad", res.Normalized)
	lex.AssertExpectations(t)
}

func TestWhitelistSuppressesAction(t *testing.T) {
	lex := substringLexicon{"ass"}
	f := New(lex, []string{"class"})

	res := f.Check("Welcome to the cl4ss, everyone")
	assert.False(t, res.Flagged)
	assert.Equal(t, "class", res.Whitelisted)

	res = f.Check("what an ass")
	assert.True(t, res.Flagged)
	assert.Empty(t, res.Whitelisted)
}

func TestWhitelistNeedsWholeWord(t *testing.T) {
	f := New(substringLexicon{"ass"}, []string{"pass"})

	res := f.Check("passage of ass")
	assert.True(t, res.Flagged)
	assert.Empty(t, res.Whitelisted)
}

func TestEmptyMessageSkipsLexicon(t *testing.T) {
	lex := new(mockLexicon)
	res := New(lex, nil).Check("...,,,  ")
	assert.False(t, res.Flagged)
	lex.AssertNotCalled(t, "IsProfane", mock.Anything)
}

func TestWhitelistIsNormalized(t *testing.T) {
	f := New(nil, []string{" Héllo ", "", "B4SS"})
	assert.Equal(t, []string{"hello", "bass"}, f.Whitelist())
}

func TestDefaultWhitelistDoesNotExemptGreetings(t *testing.T) {
	f := New(substringLexicon{"darn"}, strings.Split(config.DefaultWhitelist, ","))

	res := f.Check("hello darn")
	assert.True(t, res.Flagged)
	assert.Empty(t, res.Whitelisted)

	res = f.Check("darn this class")
	assert.False(t, res.Flagged)
	assert.Equal(t, "class", res.Whitelisted)
}
