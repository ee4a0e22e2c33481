package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFetchCoursesFollowsPaginationAndFilters(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/courses?page=2>; rel="next", <%s/courses?page=2>; rel="last"`, server.URL, server.URL))
			fmt.Fprint(w, `[{"id":1,"name":"Operating Systems","course_code":"CS3500"},{"id":2,"name":""}]`)
		case "2":
			fmt.Fprint(w, `[{"id":3,"name":"Databases","course_code":"CS3200"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	courses, err := client.FetchCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2, "entry without a name is dropped")
	require.Equal(t, int64(1), courses[0].ID)
	require.Equal(t, int64(3), courses[1].ID)
}

func TestFetchAssignmentsNormalizesOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/courses/10/assignments", r.URL.Path)
		fmt.Fprint(w, `[
			{"id":1,"name":"Lab 4","due_at":"2025-12-20T23:59:00Z","html_url":"https://canvas.test/1","has_submitted_submissions":true},
			{"id":2,"name":"No due date"},
			{"name":"missing id"}
		]`)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	assignments, err := client.FetchAssignments(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.NotNil(t, assignments[0].DueAt)
	require.True(t, assignments[0].HasSubmittedSubmissions)
	require.Nil(t, assignments[1].DueAt)
	require.False(t, assignments[1].HasSubmittedSubmissions)
}

func TestFetchCoursesSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "bad-token", zerolog.Nop())
	require.NoError(t, err)

	_, err = client.FetchCourses(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "token", zerolog.Nop())
	require.Error(t, err)

	_, err = NewClient("https://canvas.test", "", zerolog.Nop())
	require.Error(t, err)
}
