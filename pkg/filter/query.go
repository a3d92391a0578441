package filter

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/coolbeans/votetable/pkg/votes"
)

// ErrInvalidQuery is returned when a search query cannot be parsed.
var ErrInvalidQuery = errors.New("invalid search query")

const maxQueryDepth = 10

type queryFieldType int

const (
	fieldText queryFieldType = iota
	fieldCongress
	fieldMember
)

// defaultQueryField is searched by words that precede any "field:" marker.
const defaultQueryField = "name"

var queryFieldTypes = map[string]queryFieldType{
	"name":     fieldText,
	"party":    fieldText,
	"state":    fieldText,
	"vote":     fieldText,
	"chamber":  fieldText,
	"congress": fieldCongress,
	"id":       fieldMember,
}

// Query is a parsed boolean search expression.
type Query struct {
	text string
	root queryNode
}

// ParseQuery parses a search expression such as
//
//	party: Democrat AND (state: CA OR state: NY) AND congress: [110 to 113]
//
// Terms are "field: value" chunks; several chunks side by side are ANDed,
// AND and OR (upper case) combine terms and parentheses group them. Text
// and id values may be wrapped in [...] or "..." to keep spaces, commas or
// operators inside one value. Text fields match case-insensitive
// substrings; congress takes the same forms as the congress filter; id
// takes one or more exact member ids. Words before any field search names.
func ParseQuery(text string) (*Query, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}

	tokens, err := tokenizeQuery(trimmed)
	if err != nil {
		return nil, err
	}

	parser := &queryParser{tokens: tokens}
	root, err := parser.parseOr(0)
	if err != nil {
		return nil, err
	}
	if parser.pos < len(parser.tokens) {
		return nil, fmt.Errorf("%w: unmatched closing parenthesis", ErrInvalidQuery)
	}

	return &Query{text: trimmed, root: root}, nil
}

// String returns the query text.
func (query *Query) String() string {
	return query.text
}

// Match reports whether record satisfies the query.
func (query *Query) Match(record votes.VoteRecord) bool {
	return query.root.match(record)
}

type queryNode interface {
	match(record votes.VoteRecord) bool
}

type allOf []queryNode

func (nodes allOf) match(record votes.VoteRecord) bool {
	for _, node := range nodes {
		if !node.match(record) {
			return false
		}
	}
	return true
}

type anyOf []queryNode

func (nodes anyOf) match(record votes.VoteRecord) bool {
	for _, node := range nodes {
		if node.match(record) {
			return true
		}
	}
	return false
}

type textTerm struct {
	field  string
	needle string
}

func (term textTerm) match(record votes.VoteRecord) bool {
	var value string
	switch term.field {
	case "party":
		value = record.Party
	case "state":
		value = record.State
	case "vote":
		value = record.Vote
	case "chamber":
		value = record.Chamber
	default:
		value = record.Name
	}
	return strings.Contains(strings.ToLower(value), term.needle)
}

type congressTerm struct {
	spec CongressSpec
}

func (term congressTerm) match(record votes.VoteRecord) bool {
	return term.spec.Contains(record.Congress)
}

type memberTerm map[string]bool

func (term memberTerm) match(record votes.VoteRecord) bool {
	return term[record.ID.String()]
}

type queryTokenKind int

const (
	tokenWord queryTokenKind = iota
	tokenOpen
	tokenClose
	tokenAnd
	tokenOr
)

type queryToken struct {
	kind queryTokenKind
	text string
}

// tokenizeQuery splits on whitespace and parentheses. Bracketed and quoted
// literals stay inside the word they appear in.
func tokenizeQuery(text string) ([]queryToken, error) {
	var (
		tokens []queryToken
		word   strings.Builder
	)
	flush := func() {
		if word.Len() == 0 {
			return
		}
		text := word.String()
		word.Reset()
		switch text {
		case "AND":
			tokens = append(tokens, queryToken{kind: tokenAnd, text: text})
		case "OR":
			tokens = append(tokens, queryToken{kind: tokenOr, text: text})
		default:
			tokens = append(tokens, queryToken{kind: tokenWord, text: text})
		}
	}

	runes := []rune(text)
	for index := 0; index < len(runes); index++ {
		r := runes[index]
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(':
			flush()
			tokens = append(tokens, queryToken{kind: tokenOpen, text: "("})
		case r == ')':
			flush()
			tokens = append(tokens, queryToken{kind: tokenClose, text: ")"})
		case r == '[' || r == '"':
			closing := '"'
			if r == '[' {
				closing = ']'
			}
			end := -1
			for scan := index + 1; scan < len(runes); scan++ {
				if runes[scan] == closing {
					end = scan
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed %c literal", ErrInvalidQuery, r)
			}
			word.WriteString(string(runes[index : end+1]))
			index = end
		default:
			word.WriteRune(r)
		}
	}
	flush()

	return tokens, nil
}

type queryParser struct {
	tokens []queryToken
	pos    int
}

func (parser *queryParser) peek() (queryToken, bool) {
	if parser.pos >= len(parser.tokens) {
		return queryToken{}, false
	}
	return parser.tokens[parser.pos], true
}

func (parser *queryParser) parseOr(depth int) (queryNode, error) {
	if depth > maxQueryDepth {
		return nil, fmt.Errorf("%w: query nested too deeply", ErrInvalidQuery)
	}

	first, err := parser.parseAnd(depth)
	if err != nil {
		return nil, err
	}
	alternatives := []queryNode{first}
	for token, ok := parser.peek(); ok && token.kind == tokenOr; token, ok = parser.peek() {
		parser.pos++
		next, err := parser.parseAnd(depth)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, next)
	}

	if len(alternatives) == 1 {
		return first, nil
	}
	return anyOf(alternatives), nil
}

func (parser *queryParser) parseAnd(depth int) (queryNode, error) {
	var terms []queryNode

	for {
		token, ok := parser.peek()
		if !ok || token.kind == tokenClose || token.kind == tokenOr {
			break
		}

		switch token.kind {
		case tokenAnd:
			if len(terms) == 0 {
				return nil, fmt.Errorf("%w: AND has no left operand", ErrInvalidQuery)
			}
			parser.pos++
			next, ok := parser.peek()
			if !ok || next.kind == tokenClose || next.kind == tokenOr || next.kind == tokenAnd {
				return nil, fmt.Errorf("%w: AND has no right operand", ErrInvalidQuery)
			}

		case tokenOpen:
			parser.pos++
			inner, err := parser.parseOr(depth + 1)
			if err != nil {
				return nil, err
			}
			closing, ok := parser.peek()
			if !ok || closing.kind != tokenClose {
				return nil, fmt.Errorf("%w: unclosed parenthesis", ErrInvalidQuery)
			}
			parser.pos++
			terms = append(terms, inner)

		default:
			var words []string
			for word, ok := parser.peek(); ok && word.kind == tokenWord; word, ok = parser.peek() {
				words = append(words, word.text)
				parser.pos++
			}
			chunk, err := parseQueryChunk(words)
			if err != nil {
				return nil, err
			}
			terms = append(terms, chunk...)
		}
	}

	if len(terms) == 0 {
		token, ok := parser.peek()
		switch {
		case !ok:
			return nil, fmt.Errorf("%w: query ends with a boolean operator", ErrInvalidQuery)
		case token.kind == tokenClose:
			return nil, fmt.Errorf("%w: empty parentheses", ErrInvalidQuery)
		default:
			return nil, fmt.Errorf("%w: %s has no left operand", ErrInvalidQuery, token.text)
		}
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return allOf(terms), nil
}

// parseQueryChunk turns a run of words into one term per "field:" marker.
func parseQueryChunk(words []string) ([]queryNode, error) {
	var (
		terms  []queryNode
		field  string
		values []string
	)
	emit := func() error {
		if field == "" && len(values) == 0 {
			return nil
		}
		if field == "" {
			field = defaultQueryField
		}
		term, err := buildQueryTerm(field, strings.Join(values, " "))
		if err != nil {
			return err
		}
		terms = append(terms, term)
		return nil
	}

	for _, word := range words {
		name, rest, isField, err := splitFieldWord(word)
		if err != nil {
			return nil, err
		}
		if !isField {
			values = append(values, word)
			continue
		}
		if err := emit(); err != nil {
			return nil, err
		}
		field = name
		values = nil
		if rest != "" {
			values = append(values, rest)
		}
	}
	if err := emit(); err != nil {
		return nil, err
	}
	return terms, nil
}

// splitFieldWord recognises "field:" and "field:value" words. A colon
// inside a literal does not start a field.
func splitFieldWord(word string) (string, string, bool, error) {
	colon := strings.IndexRune(word, ':')
	if colon < 0 {
		return "", "", false, nil
	}
	if literal := strings.IndexAny(word, `["`); literal >= 0 && literal < colon {
		return "", "", false, nil
	}

	name := strings.ToLower(word[:colon])
	if _, ok := queryFieldTypes[name]; !ok {
		return "", "", false, fmt.Errorf("%w: unknown search field %q", ErrInvalidQuery, word[:colon])
	}
	return name, word[colon+1:], true, nil
}

func buildQueryTerm(field, raw string) (queryNode, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, fmt.Errorf("%w: empty search field %q", ErrInvalidQuery, field)
	}

	switch queryFieldTypes[field] {
	case fieldCongress:
		spec, err := ParseCongress(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		return congressTerm{spec: spec}, nil

	case fieldMember:
		memberIDs := strings.FieldsFunc(unwrapLiteral(value), func(r rune) bool {
			return unicode.IsSpace(r) || r == ','
		})
		if len(memberIDs) == 0 {
			return nil, fmt.Errorf("%w: empty search field %q", ErrInvalidQuery, field)
		}
		term := make(memberTerm, len(memberIDs))
		for _, memberID := range memberIDs {
			term[memberID] = true
		}
		return term, nil

	default:
		needle := strings.TrimSpace(unwrapLiteral(value))
		if needle == "" {
			return nil, fmt.Errorf("%w: empty search field %q", ErrInvalidQuery, field)
		}
		return textTerm{field: field, needle: strings.ToLower(needle)}, nil
	}
}

// unwrapLiteral strips one enclosing [...] and then one enclosing "...".
func unwrapLiteral(value string) string {
	if len(value) >= 2 && value[0] == '[' && value[len(value)-1] == ']' {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	return value
}
