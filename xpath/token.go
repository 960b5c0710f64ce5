package xpath

// TokenType enumerates the lexical categories the tokenizer produces.
type TokenType int

const (
	EOF TokenType = iota
	Number
	String
	Name // NCName; keywords are recognized contextually by the parser
	Unknown

	Slash
	SlashSlash
	Dot
	DotDot
	LBracket
	RBracket
	LParen
	RParen
	At
	Comma
	Pipe
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Plus
	Minus
	Colon
	ColonColon
	Dollar
	LBrace
	RBrace
	Assign
	Star // the lexer sets the Wildcard field to mark the wildcard role; the parser treats other Stars as multiply

	// Direct-constructor markup tokens.
	TagOpen       // '<' Name
	TagClose      // '>'
	TagSelfClose  // '/>'
	TagEndOpen    // '</' Name '>'
	AttrName      // name inside a start tag, before '='
	ConstrText    // raw character content between markup
	EnclosedStart // '{' inside constructor content/attribute value
	EnclosedEnd   // '}' closing an enclosed expression
)

// Token is one lexical unit: its type, literal text, and source span.
type Token struct {
	Type   TokenType
	Value  string
	Offset int
	Length int

	// Wildcard is true when a Star token is lexed in a position where it
	// must mean "name test *" rather than the multiplication operator.
	Wildcard bool
}

// keywordRoles lists the identifiers that act as keywords; the parser
// consults this (and neighboring tokens, for "order by"/"group by"/
// "stable order") rather than the tokenizer producing distinct keyword
// token types, since most of these words are also valid NCNames and the
// grammar disambiguates them positionally.
var keywordRoles = map[string]bool{
	"for": true, "let": true, "where": true, "return": true,
	"order": true, "by": true, "group": true, "stable": true,
	"ascending": true, "descending": true, "empty": true,
	"greatest": true, "least": true, "collation": true,
	"some": true, "every": true, "satisfies": true, "in": true,
	"if": true, "then": true, "else": true,
	"and": true, "or": true, "not": true,
	"div": true, "mod": true,
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
	"union": true, "intersect": true, "except": true,
	"element": true, "attribute": true, "text": true, "comment": true,
	"processing-instruction": true, "document": true,
	"count": true, "to": true,
}

func isKeyword(s string) bool { return keywordRoles[s] }

// isNameStart reports whether r can begin an NCName.
func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127
}

// isNameChar reports whether r can continue an NCName.
func isNameChar(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9') || r == '-' || r == '.'
}
