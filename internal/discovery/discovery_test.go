package discovery

import "testing"

func TestMatchPriority_ExactBeatsParentBeatsChild(t *testing.T) {
	cases := []struct {
		name        string
		target, dir string
		wantOK      bool
		wantPri     int
	}{
		{"exact", "/home/user/proj", "/home/user/proj", true, 0},
		{"ancestor dir is a parent of target", "/home/user/proj/sub", "/home/user/proj", true, 1},
		{"dir is a descendant of target", "/home/user/proj", "/home/user/proj/sub", true, 2},
		{"unrelated", "/home/user/proj", "/home/other/proj", false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pri, ok := matchPriority(tc.target, tc.dir)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && pri != tc.wantPri {
				t.Fatalf("priority = %d, want %d", pri, tc.wantPri)
			}
		})
	}
}

func TestMatchPriority_EmptyInputsNeverMatch(t *testing.T) {
	if _, ok := matchPriority("", "/home/user/proj"); ok {
		t.Fatal("expected no match for empty target")
	}
	if _, ok := matchPriority("/home/user/proj", ""); ok {
		t.Fatal("expected no match for empty dir")
	}
}

func TestNormalize_TrimsTrailingSlashAndCleansPath(t *testing.T) {
	if got := normalize("/home/user/proj/"); got != "/home/user/proj" {
		t.Fatalf("got %q", got)
	}
	if got := normalize("/home/user/../user/proj"); got != "/home/user/proj" {
		t.Fatalf("got %q", got)
	}
	if got := normalize(""); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
