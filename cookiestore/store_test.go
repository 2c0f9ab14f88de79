package cookiestore_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/adamwoolhether/httpspider/cookiestore"
)

var testURL = &url.URL{Scheme: "http", Host: "127.0.0.1:8080", Path: "/"}

func TestDefault_SingleInstance(t *testing.T) {
	const callers = 64

	var (
		wg     sync.WaitGroup
		stores = make([]*cookiestore.Store, callers)
	)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stores[i] = cookiestore.Default()
		}()
	}
	wg.Wait()

	for i, s := range stores {
		if s != stores[0] {
			t.Fatalf("caller %d received a different store instance", i)
		}
	}
}

func TestStore_JarIsStablePerOwner(t *testing.T) {
	store := cookiestore.New()
	owner := cookiestore.NewOwner()

	first := store.Jar(owner)
	second := store.Jar(owner)
	if first != second {
		t.Error("expected the same jar for repeated lookups")
	}

	if store.Len() != 1 {
		t.Errorf("exp 1 registered owner, got %d", store.Len())
	}
}

func TestStore_OwnerIsolation(t *testing.T) {
	store := cookiestore.New()

	const owners = 8
	var g errgroup.Group

	for i := range owners {
		g.Go(func() error {
			owner := cookiestore.Owner(fmt.Sprintf("owner-%d", i))
			jar := store.Jar(owner)

			exp := make([]string, 0, 3)
			for j := range 3 {
				name := fmt.Sprintf("%s-c%d", owner, j)
				jar.SetCookies(testURL, []*http.Cookie{{Name: name, Value: "v", Path: "/"}})
				exp = append(exp, name)
			}

			got := cookieNames(store.Jar(owner).Cookies(testURL))
			if diff := cmp.Diff(exp, got); diff != "" {
				return fmt.Errorf("%s saw foreign cookies: %s", owner, diff)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if store.Len() != owners {
		t.Errorf("exp %d owners, got %d", owners, store.Len())
	}
}

func TestStore_Clear(t *testing.T) {
	store := cookiestore.New()
	a, b := cookiestore.NewOwner(), cookiestore.NewOwner()

	store.Jar(a).SetCookies(testURL, []*http.Cookie{{Name: "a", Value: "1", Path: "/"}})
	store.Jar(b).SetCookies(testURL, []*http.Cookie{{Name: "b", Value: "2", Path: "/"}})

	store.Clear(a)

	if got := store.Jar(a).Cookies(testURL); len(got) != 0 {
		t.Errorf("exp fresh jar after Clear, got %v", got)
	}
	if got := cookieNames(store.Jar(b).Cookies(testURL)); !cmp.Equal(got, []string{"b"}) {
		t.Errorf("exp other owner untouched, got %v", got)
	}

	store.ClearAll()
	if store.Len() != 0 {
		t.Errorf("exp empty store after ClearAll, got %d", store.Len())
	}
}

func TestOwnerFrom(t *testing.T) {
	testCases := map[string]struct {
		ctx   context.Context
		exp   cookiestore.Owner
		expOK bool
	}{
		"missing": {
			ctx: context.Background(),
		},
		"empty": {
			ctx: cookiestore.WithOwner(context.Background(), ""),
		},
		"present": {
			ctx:   cookiestore.WithOwner(context.Background(), "worker-1"),
			exp:   "worker-1",
			expOK: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, ok := cookiestore.OwnerFrom(tc.ctx)
			if ok != tc.expOK || got != tc.exp {
				t.Errorf("exp (%q, %v), got (%q, %v)", tc.exp, tc.expOK, got, ok)
			}
		})
	}
}

func TestNewOwner_Unique(t *testing.T) {
	seen := make(map[cookiestore.Owner]struct{})
	for range 100 {
		o := cookiestore.NewOwner()
		if _, dup := seen[o]; dup {
			t.Fatalf("duplicate owner %q", o)
		}
		if strings.TrimSpace(string(o)) == "" {
			t.Fatal("empty owner")
		}
		seen[o] = struct{}{}
	}
}

func cookieNames(cookies []*http.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	sort.Strings(names)

	return names
}
