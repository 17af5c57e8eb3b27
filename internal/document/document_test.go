package document

import "testing"

func TestParseSplitsOnDelimiters(t *testing.T) {
	doc := Parse("Hello world. How are you? Fine!")
	if len(doc.Sentences) != 3 {
		t.Fatalf("len(Sentences) = %d, want 3", len(doc.Sentences))
	}
	want := [][]string{
		{"Hello", "world."},
		{"How", "are", "you?"},
		{"Fine!"},
	}
	for i, s := range doc.Sentences {
		if len(s.Words) != len(want[i]) {
			t.Fatalf("sentence %d words = %v, want %v", i, s.Words, want[i])
		}
		for j, w := range s.Words {
			if w != want[i][j] {
				t.Errorf("sentence %d word %d = %q, want %q", i, j, w, want[i][j])
			}
		}
	}
}

func TestParseEmptyText(t *testing.T) {
	doc := Parse("")
	if len(doc.Sentences) != 0 {
		t.Fatalf("len(Sentences) = %d, want 0", len(doc.Sentences))
	}
}

func TestParseTrailingTextWithoutDelimiter(t *testing.T) {
	doc := Parse("no ending punctuation here")
	if len(doc.Sentences) != 1 {
		t.Fatalf("len(Sentences) = %d, want 1", len(doc.Sentences))
	}
	if len(doc.Sentences[0].Words) != 4 {
		t.Fatalf("words = %v, want 4 words", doc.Sentences[0].Words)
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	doc := &Document{Sentences: []Sentence{
		{Words: []string{"Hello", "world."}},
		{Words: []string{"Second", "sentence!"}},
	}}
	text := Serialize(doc)
	reparsed := Parse(text)

	if len(reparsed.Sentences) != len(doc.Sentences) {
		t.Fatalf("round-trip sentence count = %d, want %d", len(reparsed.Sentences), len(doc.Sentences))
	}
	for i, s := range doc.Sentences {
		got := reparsed.Sentences[i].Words
		if len(got) != len(s.Words) {
			t.Fatalf("sentence %d words = %v, want %v", i, got, s.Words)
		}
		for j, w := range s.Words {
			if got[j] != w {
				t.Errorf("sentence %d word %d = %q, want %q", i, j, got[j], w)
			}
		}
	}
}

func TestCountSentenceAndCount(t *testing.T) {
	doc := Parse("Hi there. Go now!")
	sc := CountSentence(doc.Sentences[0])
	if sc.Words != 2 {
		t.Errorf("sentence 0 word count = %d, want 2", sc.Words)
	}
	if sc.Chars != len("Hi")+len("there.") {
		t.Errorf("sentence 0 char count = %d, want %d", sc.Chars, len("Hi")+len("there."))
	}

	total := Count(doc)
	if total.Words != 4 {
		t.Errorf("total word count = %d, want 4", total.Words)
	}
}

func TestSetWordAppendsAtExactBoundary(t *testing.T) {
	doc := &Document{}
	if !doc.SetWord(0, 0, "Hello") {
		t.Fatal("SetWord(0, 0, ...) on empty doc = false, want true")
	}
	if !doc.SetWord(0, 1, "world.") {
		t.Fatal("SetWord(0, 1, ...) appending to sentence 0 = false, want true")
	}
	if doc.Sentences[0].Words[1] != "world." {
		t.Errorf("Words[1] = %q, want %q", doc.Sentences[0].Words[1], "world.")
	}
}

func TestSetWordReplacesExisting(t *testing.T) {
	doc := Parse("Hello world.")
	if !doc.SetWord(0, 0, "Goodbye") {
		t.Fatal("SetWord replacing existing word = false, want true")
	}
	if doc.Sentences[0].Words[0] != "Goodbye" {
		t.Errorf("Words[0] = %q, want Goodbye", doc.Sentences[0].Words[0])
	}
}

func TestSetWordRejectsGaps(t *testing.T) {
	doc := &Document{}
	if doc.SetWord(1, 0, "x") {
		t.Error("SetWord(1, 0, ...) on empty doc = true, want false (would leave sentence 0 missing)")
	}
	doc.SetWord(0, 0, "Hi")
	if doc.SetWord(0, 2, "x") {
		t.Error("SetWord(0, 2, ...) with only one word present = true, want false (would leave word 1 missing)")
	}
}

func TestSetWordRejectsOutOfBounds(t *testing.T) {
	doc := &Document{}
	if doc.SetWord(-1, 0, "x") {
		t.Error("SetWord with negative sentence index = true, want false")
	}
	if doc.SetWord(0, -1, "x") {
		t.Error("SetWord with negative word index = true, want false")
	}
	if doc.SetWord(MaxSentences, 0, "x") {
		t.Error("SetWord at MaxSentences = true, want false")
	}
	if doc.SetWord(0, MaxWords, "x") {
		t.Error("SetWord at MaxWords = true, want false")
	}
}

func TestSentenceAndWordInRange(t *testing.T) {
	doc := Parse("Hi there. Go now!")
	if !doc.SentenceInRange(0) || !doc.SentenceInRange(1) {
		t.Error("expected sentences 0 and 1 to be in range")
	}
	if doc.SentenceInRange(2) {
		t.Error("expected sentence 2 to be out of range")
	}
	if !doc.WordInRange(0, 0) || !doc.WordInRange(0, 1) {
		t.Error("expected words 0 and 1 of sentence 0 to be in range")
	}
	if doc.WordInRange(0, 2) {
		t.Error("expected word 2 of sentence 0 to be out of range")
	}
}
