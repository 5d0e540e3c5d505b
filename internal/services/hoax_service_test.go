package services

import (
	"context"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/hoaxify/hoaxify/internal/models"
)

func TestHoaxServiceCreateStampsServerTime(t *testing.T) {
	f := newServiceFixture(t)
	user := f.addUser(t, "user1", true)

	hoax := f.addHoax(t, user, "Hoax content for the test")

	var stored models.Hoax
	require.NoError(t, f.db.Take(&stored, hoax.ID).Error)
	require.Equal(t, "Hoax content for the test", stored.Content)
	require.Equal(t, f.now.UnixMilli(), stored.Timestamp)
	require.Equal(t, user.ID, stored.UserID)
}

func TestHoaxServiceCreateClaimsAttachmentOnce(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "user1", true)

	attachment, err := f.files.SaveAttachment(ctx, []byte("some attachment text"))
	require.NoError(t, err)

	first, err := f.hoaxes.Create(ctx, CreateHoaxInput{Content: "first hoax content", FileAttachment: &attachment.ID}, user.ID)
	require.NoError(t, err)
	_, err = f.hoaxes.Create(ctx, CreateHoaxInput{Content: "second hoax content", FileAttachment: &attachment.ID}, user.ID)
	require.NoError(t, err)

	var stored models.FileAttachment
	require.NoError(t, f.db.Take(&stored, attachment.ID).Error)
	require.NotNil(t, stored.HoaxID)
	require.Equal(t, first.ID, *stored.HoaxID)
}

func TestHoaxServiceCreateRollsBackWhenAssociationFails(t *testing.T) {
	f := newServiceFixture(t)
	user := f.addUser(t, "user1", true)
	attachmentID := uint(1)

	require.NoError(t, f.db.Migrator().DropTable(&models.FileAttachment{}))

	_, err := f.hoaxes.Create(context.Background(), CreateHoaxInput{
		Content:        "hoax with a broken attachment",
		FileAttachment: &attachmentID,
	}, user.ID)
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.Hoax{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestHoaxServiceListNewestFirst(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user1 := f.addUser(t, "user1", true)
	user2 := f.addUser(t, "user2", true)

	for i := 0; i < 5; i++ {
		f.addHoax(t, user1, "hoax content from user1")
	}
	last := f.addHoax(t, user2, "hoax content from user2")

	page, err := f.hoaxes.List(ctx, 0, 4, nil)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 4)
	require.Equal(t, last.ID, page.Content[0].ID)
	require.Equal(t, "user2", page.Content[0].User.Username)
	require.Equal(t, "user2@mail.com", page.Content[0].User.Email)
	require.Nil(t, page.Content[0].FileAttachment)
	for i := 1; i < len(page.Content); i++ {
		require.Greater(t, page.Content[i-1].ID, page.Content[i].ID)
	}

	page, err = f.hoaxes.List(ctx, 0, 10, &user1.ID)
	require.NoError(t, err)
	require.Len(t, page.Content, 5)
	for _, view := range page.Content {
		require.Equal(t, user1.ID, view.User.ID)
	}
}

func TestHoaxServiceListIncludesAttachment(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "user1", true)

	attachment, err := f.files.SaveAttachment(ctx, []byte("text attachment content"))
	require.NoError(t, err)
	_, err = f.hoaxes.Create(ctx, CreateHoaxInput{Content: "hoax with attachment", FileAttachment: &attachment.ID}, user.ID)
	require.NoError(t, err)

	page, err := f.hoaxes.List(ctx, 0, 10, nil)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	require.NotNil(t, page.Content[0].FileAttachment)
	require.Equal(t, attachment.Filename, page.Content[0].FileAttachment.Filename)
	require.Nil(t, page.Content[0].FileAttachment.FileType)
}

func TestHoaxServiceListUserFilter(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	inactive := f.addUser(t, "user1", false)

	page, err := f.hoaxes.List(ctx, 0, 10, &inactive.ID)
	require.NoError(t, err)
	require.Empty(t, page.Content)

	missing := uint(9999)
	_, err = f.hoaxes.List(ctx, 0, 10, &missing)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestHoaxServiceDeleteOnlyByOwner(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "user1", true)
	other := f.addUser(t, "user2", true)

	attachment, err := f.files.SaveAttachment(ctx, []byte("attachment to remove"))
	require.NoError(t, err)
	hoax, err := f.hoaxes.Create(ctx, CreateHoaxInput{Content: "hoax to be deleted", FileAttachment: &attachment.ID}, owner.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.hoaxes.Delete(ctx, hoax.ID, other.ID), ErrUnauthorizedHoaxDelete)
	require.ErrorIs(t, f.hoaxes.Delete(ctx, 9999, owner.ID), ErrUnauthorizedHoaxDelete)

	var count int64
	require.NoError(t, f.db.Model(&models.Hoax{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	require.NoError(t, f.hoaxes.Delete(ctx, hoax.ID, owner.ID))

	require.NoError(t, f.db.Model(&models.Hoax{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, f.db.Model(&models.FileAttachment{}).Count(&count).Error)
	require.Zero(t, count)

	exists, err := afero.Exists(f.fs, path.Join(f.files.AttachmentFolder(), attachment.Filename))
	require.NoError(t, err)
	require.False(t, exists)
}
