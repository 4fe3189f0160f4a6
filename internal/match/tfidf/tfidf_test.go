package tfidf

import "testing"

func TestCosineSimilarityIdenticalDocsIsOne(t *testing.T) {
	v := New(3, 4)
	v.Fit([]string{"bosch akulu matkap", "makita sarjli testere"})

	a := v.Transform("bosch akulu matkap")
	b := v.Transform("bosch akulu matkap")
	sim := CosineSimilarity(a, b)
	if sim < 0.999 {
		t.Errorf("self similarity = %f, want ~1.0", sim)
	}
}

func TestCosineSimilarityUnrelatedDocsIsLow(t *testing.T) {
	v := New(3, 4)
	v.Fit([]string{"bosch akulu matkap seti", "makita sarjli testere", "xyzzy plugh quux"})

	a := v.Transform("bosch akulu matkap seti")
	b := v.Transform("xyzzy plugh quux")
	sim := CosineSimilarity(a, b)
	if sim > 0.2 {
		t.Errorf("unrelated similarity = %f, want near 0", sim)
	}
}

func TestTransformIgnoresOutOfVocabTerms(t *testing.T) {
	v := New(3, 4)
	v.Fit([]string{"bosch matkap"})
	vec := v.Transform("completely different text with no shared grams except spaces")
	if len(vec.terms) != 0 && CosineSimilarity(vec, v.Transform("bosch matkap")) > 0.3 {
		t.Errorf("expected near-zero similarity for disjoint vocab")
	}
}
