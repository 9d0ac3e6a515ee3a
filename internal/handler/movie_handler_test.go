package handler

import (
	"fmt"
	"net/http"
	"testing"

	"cinematch/backend/internal/models"
	"cinematch/backend/internal/movieapi"
)

func addMovies(t *testing.T, srv *testServer, adminToken string, titles ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(titles))
	for i, title := range titles {
		w := srv.do(t, http.MethodPost, "/api/actions/movie/add", adminToken, AddMovieInput{
			Title: title,
			Year:  1990 + i,
			StreamingInfo: []models.StreamingOption{
				{Service: "netflix", StreamingType: "subscription", Link: "https://example.com/" + title},
			},
		})
		wantStatus(t, w, http.StatusCreated)
		var movie MovieResponse
		decode(t, w, &movie)
		ids = append(ids, movie.ID)
	}
	return ids
}

func TestAdminMovieActions(t *testing.T) {
	srv := newTestServer(t)
	adminToken, _ := srv.signUpAdmin(t, "admin01")
	userToken, _ := srv.signUp(t, "viewer1")

	w := srv.do(t, http.MethodPost, "/api/actions/movie/add", userToken, AddMovieInput{Title: "Heat"})
	wantStatus(t, w, http.StatusForbidden)

	w = srv.do(t, http.MethodPost, "/api/actions/movie/add", adminToken, AddMovieInput{Title: "Heat", Year: 1995})
	wantStatus(t, w, http.StatusCreated)
	var movie MovieResponse
	decode(t, w, &movie)
	if movie.Description != "A heist." || movie.Rated != "R" {
		t.Errorf("details not filled from lookup: %+v", movie)
	}
	if movie.HasPoster {
		t.Error("movie without a poster URL should have no poster")
	}
	if movie.StreamingInfo == nil {
		t.Error("streamingInfo should encode as an empty list, not null")
	}

	w = srv.do(t, http.MethodPost, "/api/actions/movie/add", adminToken, AddMovieInput{})
	wantStatus(t, w, http.StatusBadRequest)

	w = srv.do(t, http.MethodPost, "/api/actions/movie/search", adminToken, SearchMovieInput{Title: "Heat"})
	wantStatus(t, w, http.StatusOK)
	var results []movieapi.SearchResult
	decode(t, w, &results)
	if len(results) != 1 || results[0].Title != "Heat" {
		t.Errorf("search results = %+v", results)
	}

	w = srv.do(t, http.MethodPost, "/api/actions/movie/search", userToken, SearchMovieInput{Title: "Heat"})
	wantStatus(t, w, http.StatusForbidden)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/entities/movies/%d", movie.ID), userToken, nil)
	wantStatus(t, w, http.StatusOK)

	wantStatus(t, srv.do(t, http.MethodDelete, fmt.Sprintf("/api/entities/movies/%d", movie.ID), userToken, nil), http.StatusForbidden)
	wantStatus(t, srv.do(t, http.MethodDelete, fmt.Sprintf("/api/entities/movies/%d", movie.ID), adminToken, nil), http.StatusNoContent)
	wantStatus(t, srv.do(t, http.MethodGet, fmt.Sprintf("/api/entities/movies/%d", movie.ID), userToken, nil), http.StatusNotFound)
}

func TestListMoviesPagination(t *testing.T) {
	srv := newTestServer(t)
	adminToken, _ := srv.signUpAdmin(t, "admin01")
	addMovies(t, srv, adminToken, "Alien", "Brazil", "Casino")

	w := srv.do(t, http.MethodGet, "/api/entities/movies?page=2&limit=2", adminToken, nil)
	wantStatus(t, w, http.StatusOK)
	var page PaginatedResponse[MovieResponse]
	decode(t, w, &page)
	if page.Meta.TotalItems != 3 || page.Meta.TotalPages != 2 || page.Meta.CurrentPage != 2 {
		t.Errorf("meta = %+v", page.Meta)
	}
	if len(page.Data) != 1 {
		t.Errorf("page 2 has %d movies, want 1", len(page.Data))
	}
}

func TestFavoritesAndSharing(t *testing.T) {
	srv := newTestServer(t)
	adminToken, _ := srv.signUpAdmin(t, "admin01")
	aliceToken, aliceID := srv.signUp(t, "alice01")
	bobToken, bobID := srv.signUp(t, "bob0001")
	ids := addMovies(t, srv, adminToken, "Alien", "Brazil", "Casino", "Dune")

	w := srv.do(t, http.MethodPost, "/api/entities/user/favorite-movies", aliceToken, MovieIDsInput{MovieIDs: ids[:2]})
	wantStatus(t, w, http.StatusOK)
	var favorites []MovieResponse
	decode(t, w, &favorites)
	if len(favorites) != 2 {
		t.Fatalf("favorites = %d, want 2", len(favorites))
	}

	w = srv.do(t, http.MethodPost, "/api/entities/user/favorite-movies", aliceToken, MovieIDsInput{MovieIDs: []uint{ids[3], 9999}})
	wantStatus(t, w, http.StatusBadRequest)

	w = srv.do(t, http.MethodGet, "/api/entities/user/favorite-movies", aliceToken, nil)
	wantStatus(t, w, http.StatusOK)
	favorites = nil
	decode(t, w, &favorites)
	if len(favorites) != 2 {
		t.Errorf("a rejected update must leave favorites unchanged, got %d", len(favorites))
	}

	sharePath := fmt.Sprintf("/api/entities/share-movies/%d", bobID)

	w = srv.do(t, http.MethodGet, sharePath, aliceToken, nil)
	wantStatus(t, w, http.StatusOK)
	var shared []MovieResponse
	decode(t, w, &shared)
	if len(shared) != 0 {
		t.Errorf("shared before sharing = %d, want 0", len(shared))
	}

	wantStatus(t, srv.do(t, http.MethodPost, sharePath, aliceToken, MovieIDsInput{MovieIDs: ids[:2]}), http.StatusBadRequest)
	wantStatus(t, srv.do(t, http.MethodPost, sharePath, aliceToken, MovieIDsInput{MovieIDs: []uint{ids[0], ids[1], 9999}}), http.StatusBadRequest)
	wantStatus(t, srv.do(t, http.MethodPost, fmt.Sprintf("/api/entities/share-movies/%d", aliceID), aliceToken, MovieIDsInput{MovieIDs: ids[:3]}), http.StatusBadRequest)

	w = srv.do(t, http.MethodPost, sharePath, aliceToken, MovieIDsInput{MovieIDs: ids[:3]})
	wantStatus(t, w, http.StatusCreated)

	// The pair is unordered.
	w = srv.do(t, http.MethodPost, fmt.Sprintf("/api/entities/share-movies/%d", aliceID), bobToken, MovieIDsInput{MovieIDs: ids[1:]})
	wantStatus(t, w, http.StatusConflict)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/entities/share-movies/%d", aliceID), bobToken, nil)
	wantStatus(t, w, http.StatusOK)
	shared = nil
	decode(t, w, &shared)
	if len(shared) != 3 {
		t.Errorf("shared = %d, want 3", len(shared))
	}

	w = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/entities/movies/%d", ids[0]), adminToken, nil)
	wantStatus(t, w, http.StatusConflict)
}
