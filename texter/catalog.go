package texter

// Template is a main sentence template for one transaction kind, with the
// option clauses that may trail it.
type Template struct {
	Kind    string
	Text    string
	Options []string
}

// Clause is an optional, independently matched sentence fragment.
type Clause struct {
	Name string
	Text string
}

// Catalog is the full template set of one language. The catalog literal
// order is the decode registration order: the first matching template wins,
// so more specific templates come first.
type Catalog struct {
	Language  string
	Templates []Template
	Clauses   []Clause
}

// Builtin returns the built-in catalog for a language code.
func Builtin(language string) (Catalog, bool) {
	switch language {
	case "fi":
		return Finnish, true
	case "en":
		return English, true
	default:
		return Catalog{}, false
	}
}

// Finnish is the primary catalog.
var Finnish = Catalog{
	Language: "fi",
	Templates: []Template{
		{Kind: "stock-dividend", Text: "Osakeanti +{amount} ={target}", Options: []string{"yht"}},
		{Kind: "buy", Text: "Osto +{amount} ={target}", Options: []string{"yht", "kh", "kulut"}},
		{Kind: "sell", Text: "Myynti +{amount} ={target}", Options: []string{"yht", "kh", "kulut"}},
		{Kind: "trade", Text: "Vaihto +{given} ={source} -> +{amount} ={target}", Options: []string{"yht", "jaljella", "kulut"}},
		{Kind: "dividend", Text: "Osinko ={amount} x ={target}", Options: []string{"kurssi", "vero"}},
		{Kind: "deposit", Text: "Talletus C{service}-palveluun", Options: []string{"kulut"}},
		{Kind: "withdrawal", Text: "Nosto C{service}-palvelusta", Options: []string{"kulut"}},
		{Kind: "move-in", Text: "Siirto +{amount} ={target} C{service}-palveluun", Options: []string{"yht"}},
		{Kind: "move-out", Text: "Siirto +{amount} ={target} C{service}-palvelusta", Options: []string{"yht"}},
		{Kind: "fx-in", Text: "Valuutan osto ${total} X{$}", Options: []string{"kurssi"}},
		{Kind: "fx-out", Text: "Valuutan myynti ${total} X{$}", Options: []string{"kurssi"}},
		{Kind: "loan-take", Text: "Lainanotto C{service}-palvelusta"},
		{Kind: "loan-pay", Text: "Lainan lyhennys C{service}-palveluun"},
		{Kind: "interest", Text: "Lainakorko"},
		{Kind: "expense", Text: "Kulu ={notes}"},
		{Kind: "income", Text: "Tuotto ={notes}"},
		{Kind: "error", Text: "Virheellinen tapahtuma: ={notes}"},
	},
	Clauses: []Clause{
		{Name: "yht", Text: "yht. #{stock} ={target}"},
		{Name: "jaljella", Text: "jäljellä +{stock2} ={source}"},
		{Name: "kh", Text: "k.h. nyt ${avg} X{$}"},
		{Name: "kurssi", Text: "kurssi ${rate} £{currency}/X{$}"},
		{Name: "kulut", Text: "kulut ${fee} X{$}"},
		{Name: "vero", Text: "vero ${tax} X{$}"},
	},
}

// English mirrors the Finnish catalog clause for clause.
var English = Catalog{
	Language: "en",
	Templates: []Template{
		{Kind: "stock-dividend", Text: "Stock dividend +{amount} ={target}", Options: []string{"stock"}},
		{Kind: "buy", Text: "Buy +{amount} ={target}", Options: []string{"stock", "avg", "fee"}},
		{Kind: "sell", Text: "Sell +{amount} ={target}", Options: []string{"stock", "avg", "fee"}},
		{Kind: "trade", Text: "Trade +{given} ={source} -> +{amount} ={target}", Options: []string{"stock", "left", "fee"}},
		{Kind: "dividend", Text: "Dividend ={amount} x ={target}", Options: []string{"rate", "tax"}},
		{Kind: "deposit", Text: "Deposit to C{service}", Options: []string{"fee"}},
		{Kind: "withdrawal", Text: "Withdrawal from C{service}", Options: []string{"fee"}},
		{Kind: "move-in", Text: "Transfer +{amount} ={target} to C{service}", Options: []string{"stock"}},
		{Kind: "move-out", Text: "Transfer +{amount} ={target} from C{service}", Options: []string{"stock"}},
		{Kind: "fx-in", Text: "Currency buy ${total} X{$}", Options: []string{"rate"}},
		{Kind: "fx-out", Text: "Currency sell ${total} X{$}", Options: []string{"rate"}},
		{Kind: "loan-take", Text: "Loan from C{service}"},
		{Kind: "loan-pay", Text: "Loan payment to C{service}"},
		{Kind: "interest", Text: "Loan interest"},
		{Kind: "expense", Text: "Expense ={notes}"},
		{Kind: "income", Text: "Income ={notes}"},
		{Kind: "error", Text: "Invalid entry: ={notes}"},
	},
	Clauses: []Clause{
		{Name: "stock", Text: "total #{stock} ={target}"},
		{Name: "left", Text: "left +{stock2} ={source}"},
		{Name: "avg", Text: "avg now ${avg} X{$}"},
		{Name: "rate", Text: "rate ${rate} £{currency}/X{$}"},
		{Name: "fee", Text: "fees ${fee} X{$}"},
		{Name: "tax", Text: "tax ${tax} X{$}"},
	},
}
