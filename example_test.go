package httpspider_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/httpspider"
	"github.com/adamwoolhether/httpspider/client"
	"github.com/adamwoolhether/httpspider/spider"
)

func ExampleNewClient() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"msg":"hello"}`)
	}))
	defer ts.Close()

	c, err := httpspider.NewClient(client.WithTimeout(5 * time.Second))
	if err != nil {
		fmt.Println("build error:", err)
		return
	}

	resp, err := c.Get(context.Background(), ts.URL, nil, nil)
	if err != nil {
		fmt.Println("do error:", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println(resp.StatusCode)
	// Output: 200
}

func ExampleNewSpider() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"msg":"hello %s"}`, r.URL.Query().Get("name"))
	}))
	defer ts.Close()

	s, err := httpspider.NewSpider(ts.URL)
	if err != nil {
		fmt.Println("build error:", err)
		return
	}
	defer s.Close()

	var resp struct{ Msg string }
	err = s.SetRequestParameters(map[string]string{"name": "gopher"}).
		Get(context.Background(), spider.JSON(http.StatusOK, &resp))
	if err != nil {
		fmt.Println("do error:", err)
		return
	}

	fmt.Println(resp.Msg)
	// Output: hello gopher
}
