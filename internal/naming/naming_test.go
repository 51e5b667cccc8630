package naming

import (
	"sort"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Ordered
	}{
		{"1-brands", Ordered{Order: 1, HasOrder: true, Slug: "brands"}},
		{"2a-elle.jpg", Ordered{Order: 2, HasOrder: true, Suffix: "a", Slug: "elle"}},
		{"12-food", Ordered{Order: 12, HasOrder: true, Slug: "food"}},
		{"main", Ordered{Slug: "main"}},
		{"2024.jpg", Ordered{Slug: "2024"}},
	}
	for _, c := range cases {
		if got := Parse(c.in); got != c.want {
			t.Fatalf("Parse(%q)：got=%+v want=%+v", c.in, got, c.want)
		}
	}
}

func TestTitleAndUpper(t *testing.T) {
	if got := Title("4-leaky-people"); got != "Leaky People" {
		t.Fatalf("Title：got=%q", got)
	}
	if got := Title("3-pivot_point"); got != "Pivot Point" {
		t.Fatalf("Title：got=%q", got)
	}
	if got := Upper("1-pivotpoint.jpg"); got != "PIVOTPOINT" {
		t.Fatalf("Upper：got=%q", got)
	}
	if got := Upper("2a-three-stories.jpg"); got != "THREE STORIES" {
		t.Fatalf("Upper：got=%q", got)
	}
	if got := Slug("8-Display"); got != "display" {
		t.Fatalf("Slug：got=%q", got)
	}
}

func TestLess_NaturalOrder(t *testing.T) {
	in := []string{"10-x", "main", "2-b", "1-a", "2a-c", "1-b"}
	sort.Slice(in, func(i, j int) bool { return Less(in[i], in[j]) })
	want := []string{"1-a", "1-b", "2-b", "2a-c", "10-x", "main"}
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("自然序不符合预期：got=%v want=%v", in, want)
		}
	}
}

func TestLessPath(t *testing.T) {
	if !LessPath("images/gallery/1-a/2-y.jpg", "images/gallery/1-a/10-x.jpg") {
		t.Fatalf("期望 2-y 在 10-x 之前")
	}
	if !LessPath("images/gallery/2-b/z.jpg", "images/gallery/10-a/a.jpg") {
		t.Fatalf("期望 2-b 目录在 10-a 目录之前")
	}
}
