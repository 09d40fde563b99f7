package blogsvc

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/quill/internal/infra/form"
	"github.com/mkrupp/quill/internal/infra/session"
)

const (
	msgPostCreated = "Your post has been created!"
	msgPostUpdated = "Your post has been updated!"
	msgPostDeleted = "Your post has been deleted!"

	legendNewPost    = "New Post"
	legendUpdatePost = "Update Post"
)

// pageNumber reads the page query parameter. Missing, malformed and
// non-positive values mean page 1.
func pageNumber(r *http.Request) int {
	return form.Int(r.URL.Query(), "page", 1, 1)
}

// postID parses the {id} URL parameter. Non-integers are not found.
func postID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: post id %q", errNotFound, chi.URLParam(r, "id"))
	}

	return id, nil
}

// HandleHome lists all posts, newest first.
func (ht *HTTPTransport) HandleHome(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "home", ht.handleHome)
}

func (ht *HTTPTransport) handleHome(w http.ResponseWriter, r *http.Request) error {
	posts, err := ht.posts.ListRecent(r.Context(), pageNumber(r))
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	//nolint:exhaustruct
	return ht.render(w, r, http.StatusOK, "home", &pageData{
		Title:    "Home",
		Posts:    posts,
		PageBase: routeURL("home"),
	})
}

// HandleAbout renders the static about page.
func (ht *HTTPTransport) HandleAbout(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "about", func(w http.ResponseWriter, r *http.Request) error {
		//nolint:exhaustruct
		return ht.render(w, r, http.StatusOK, "about", &pageData{Title: "About"})
	})
}

// HandleUserPosts lists one author's posts, newest first.
func (ht *HTTPTransport) HandleUserPosts(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "user posts", ht.handleUserPosts)
}

func (ht *HTTPTransport) handleUserPosts(w http.ResponseWriter, r *http.Request) error {
	username := chi.URLParam(r, "username")

	author, err := ht.auth.GetUserByUsername(r.Context(), username)
	if err != nil {
		return fmt.Errorf("get author: %w", err)
	}

	posts, err := ht.posts.ListByAuthor(r.Context(), author, pageNumber(r))
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	//nolint:exhaustruct
	return ht.render(w, r, http.StatusOK, "user_posts", &pageData{
		Title:    author.Username,
		User:     author,
		Posts:    posts,
		PageBase: routeURL("user_posts", author.Username),
	})
}

// HandleShowPost renders a single post.
func (ht *HTTPTransport) HandleShowPost(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "show post", ht.handleShowPost)
}

func (ht *HTTPTransport) handleShowPost(w http.ResponseWriter, r *http.Request) error {
	id, err := postID(r)
	if err != nil {
		return err
	}

	found, err := ht.posts.GetPost(r.Context(), id)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	//nolint:exhaustruct
	return ht.render(w, r, http.StatusOK, "post", &pageData{Title: found.Title, Post: found})
}

// HandleNewPost shows and processes the post editor for a new post.
func (ht *HTTPTransport) HandleNewPost(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "new post", ht.handleNewPost)
}

func (ht *HTTPTransport) handleNewPost(w http.ResponseWriter, r *http.Request) error {
	//nolint:exhaustruct
	data := &pageData{Title: legendNewPost, Legend: legendNewPost}

	if r.Method != http.MethodPost {
		return ht.render(w, r, http.StatusOK, "create_post", data)
	}

	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}

	var input postInput

	result, err := form.Decode(r.PostForm, &input)
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}

	data.Form = result

	if !result.Valid() {
		return ht.render(w, r, http.StatusOK, "create_post", data)
	}

	ctx := r.Context()

	if _, err := ht.posts.CreatePost(ctx, currentUser(ctx), input.Title, input.Content); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	ht.events.CountEvent("post_created")
	session.FromContext(ctx).AddFlash(session.FlashSuccess, msgPostCreated)
	redirect(w, r, routeURL("home"))

	return nil
}

// HandleUpdatePost shows and processes the post editor for an existing post.
func (ht *HTTPTransport) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "update post", ht.handleUpdatePost)
}

func (ht *HTTPTransport) handleUpdatePost(w http.ResponseWriter, r *http.Request) error {
	id, err := postID(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	editor := currentUser(ctx)

	found, err := ht.posts.GetOwnPost(ctx, editor, id)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	//nolint:exhaustruct
	data := &pageData{
		Title:  legendUpdatePost,
		Legend: legendUpdatePost,
		Form: form.Fill(map[string]any{
			"title":   found.Title,
			"content": found.Content,
		}),
	}

	if r.Method != http.MethodPost {
		return ht.render(w, r, http.StatusOK, "create_post", data)
	}

	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}

	var input postInput

	result, err := form.Decode(r.PostForm, &input)
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}

	data.Form = result

	if !result.Valid() {
		return ht.render(w, r, http.StatusOK, "create_post", data)
	}

	if _, err := ht.posts.UpdatePost(ctx, editor, id, input.Title, input.Content); err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	ht.events.CountEvent("post_updated")
	session.FromContext(ctx).AddFlash(session.FlashSuccess, msgPostUpdated)
	redirect(w, r, routeURL("post", id))

	return nil
}

// HandleDeletePost deletes a post owned by the current user.
func (ht *HTTPTransport) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "delete post", ht.handleDeletePost)
}

func (ht *HTTPTransport) handleDeletePost(w http.ResponseWriter, r *http.Request) error {
	id, err := postID(r)
	if err != nil {
		return err
	}

	ctx := r.Context()

	if err := ht.posts.DeletePost(ctx, currentUser(ctx), id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	ht.events.CountEvent("post_deleted")
	session.FromContext(ctx).AddFlash(session.FlashSuccess, msgPostDeleted)
	redirect(w, r, routeURL("home"))

	return nil
}
