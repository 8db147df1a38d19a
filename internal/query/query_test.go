package query

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
)

const fixture = `<library>
	<book genre="fiction"><title>A Novel</title></book>
	<book><title>Essays</title></book>
	<cd genre="jazz"/>
</library>`

func parseRoot(t *testing.T) *xmlquery.Node {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	root := xmlquery.FindOne(doc, "/library")
	if root == nil {
		t.Fatal("fixture root not found")
	}
	return root
}

func TestChildrenNamed(t *testing.T) {
	root := parseRoot(t)
	books := New(root).ChildrenNamed("book")
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if all := New(root).Children(); len(all) != 3 {
		t.Errorf("expected 3 element children, got %d", len(all))
	}
}

func TestFilterWithPredicates(t *testing.T) {
	root := parseRoot(t)
	withGenre := New(root).Children().Filter(HasAttribute("genre"))
	if len(withGenre) != 2 {
		t.Fatalf("expected 2 elements with genre, got %d", len(withGenre))
	}

	// Conjunction narrows to the fiction book only.
	fictionBooks := New(root).Children().Filter(
		HasAttribute("genre").And(HasChildNamed("title")),
	)
	if len(fictionBooks) != 1 || fictionBooks[0].Data != "book" {
		t.Fatalf("expected the one fiction book, got %d nodes", len(fictionBooks))
	}
}

func TestHasChildMatching(t *testing.T) {
	root := parseRoot(t)
	hasNovel := HasChildMatching("title", func(n *xmlquery.Node) bool {
		return strings.Contains(n.InnerText(), "Novel")
	})
	matched := New(root).ChildrenNamed("book").Filter(hasNovel)
	if len(matched) != 1 {
		t.Fatalf("expected 1 book with a Novel title, got %d", len(matched))
	}
}

func TestAttrDropsAbsent(t *testing.T) {
	root := parseRoot(t)
	genres := New(root).Children().Attr("genre")
	if len(genres) != 2 {
		t.Fatalf("expected 2 genre values, got %d", len(genres))
	}
	if genres[0] != "fiction" || genres[1] != "jazz" {
		t.Errorf("unexpected genres: %v", genres)
	}
}

func TestTexts(t *testing.T) {
	root := parseRoot(t)
	titles := New(root).ChildrenNamed("book").ChildrenNamed("title").Texts()
	want := []string{"A Novel", "Essays"}
	if len(titles) != len(want) {
		t.Fatalf("expected %d titles, got %d", len(want), len(titles))
	}
	for i, w := range want {
		if titles[i] != w {
			t.Errorf("title[%d]: expected %q, got %q", i, w, titles[i])
		}
	}
}

func TestNewDropsNil(t *testing.T) {
	root := parseRoot(t)
	l := New(root, nil, root)
	if len(l) != 2 {
		t.Errorf("expected nils dropped, got %d nodes", len(l))
	}
	if first := (List{}).First(); first != nil {
		t.Error("First on empty list must be nil")
	}
}
