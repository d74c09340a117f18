package views_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/UkralStul/x-clone-service/internal/client"
	"github.com/UkralStul/x-clone-service/internal/testserver"
	"github.com/UkralStul/x-clone-service/internal/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func depsFor(c *client.Client, confirm bool) views.Deps {
	return views.Deps{
		Session:   views.NewSession(c, nil),
		Identity:  c,
		Documents: c,
		Blobs:     c,
		Subscribe: views.SubscribeWith(c.SubscribePosts),
		Alerter:   views.AlertFunc(func(string) {}),
		Confirmer: views.ConfirmFunc(func(string) bool { return confirm }),
	}
}

func TestViews_ComposeEditDeleteThroughServer(t *testing.T) {
	srv := testserver.Start(t)
	ctx := context.Background()
	d := depsFor(client.New(srv.URL), true)

	signUp := views.NewSignUpForm(d)
	signUp.SetName("Alice")
	signUp.SetEmail("alice@example.com")
	signUp.SetPassword("secret1")
	require.Equal(t, views.RouteHome, signUp.Submit(ctx))

	feed := views.NewFeed(d)
	require.NoError(t, feed.Mount(ctx))
	defer feed.Unmount()

	composer := views.NewComposer(d)
	composer.SetText("hello from the composer")
	composer.SelectFile(&views.File{Name: "cat.png", Data: png})
	composer.Submit(ctx)
	assert.Empty(t, composer.Text())
	assert.Nil(t, composer.File())

	require.Eventually(t, func() bool {
		posts := feed.Posts()
		return len(posts) == 1 && posts[0].PhotoURL != ""
	}, 3*time.Second, 10*time.Millisecond)

	post := feed.Posts()[0]
	assert.Equal(t, "hello from the composer", post.Text)
	assert.Equal(t, "Alice", post.AuthorDisplayName)

	resp, err := http.Get(post.PhotoURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Правка текста доходит до ленты
	controls := feed.Items()[0].Controls()
	require.NotNil(t, controls)
	controls.Edit()
	controls.SetDraft("edited")
	controls.Save(ctx)
	require.Eventually(t, func() bool {
		posts := feed.Posts()
		return len(posts) == 1 && posts[0].Text == "edited"
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, views.ModeView, feed.Items()[0].Mode())

	// Удаление убирает пост и его фото
	feed.Items()[0].Controls().Delete(ctx)
	require.Eventually(t, func() bool { return len(feed.Posts()) == 0 }, 3*time.Second, 10*time.Millisecond)

	resp, err = http.Get(post.PhotoURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestViews_ProfileThroughServer(t *testing.T) {
	srv := testserver.Start(t)
	ctx := context.Background()
	d := depsFor(client.New(srv.URL), true)

	login := views.NewSignUpForm(d)
	login.SetName("Bob")
	login.SetEmail("bob@example.com")
	login.SetPassword("secret1")
	require.Equal(t, views.RouteHome, login.Submit(ctx))

	composer := views.NewComposer(d)
	composer.SetText("first")
	composer.Submit(ctx)

	profile := views.NewProfile(d)
	profile.Mount(ctx)
	require.Len(t, profile.Items(), 1)
	assert.Equal(t, "first", profile.Items()[0].Post().Text)

	profile.StartEdit()
	profile.SetName("Robert")
	profile.SaveName(ctx)
	assert.Equal(t, "Robert", profile.DisplayName())

	profile.ChangeAvatar(ctx, &views.File{Name: "me.png", Data: png})
	require.NotEmpty(t, profile.AvatarURL())

	resp, err := http.Get(profile.AvatarURL())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, views.RouteLogin, d.Session.SignOut(ctx))
	route, ok := views.RequireSession(d.Session)
	assert.False(t, ok)
	assert.Equal(t, views.RouteLogin, route)
}
