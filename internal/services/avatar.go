package services

import (
  "context"
  "fmt"
  "image/color"
  "os"
  "path/filepath"
  "strings"

  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  "golang.org/x/image/font/gofont/goregular"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/types"
)

const avatarSize = 256

var avatarPalette = []color.NRGBA{
  {R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF},
  {R: 0x21, G: 0x96, B: 0xF3, A: 0xFF},
  {R: 0x9C, G: 0x27, B: 0xB0, A: 0xFF},
  {R: 0xFF, G: 0x57, B: 0x22, A: 0xFF},
  {R: 0x00, G: 0x96, B: 0x88, A: 0xFF},
  {R: 0x3F, G: 0x51, B: 0xB5, A: 0xFF},
  {R: 0x79, G: 0x55, B: 0x48, A: 0xFF},
}

// AvatarService renders an initials placeholder avatar for new users and
// stores it under the local avatar directory.
type AvatarService interface {
  CreateUserAvatar(ctx context.Context, user *types.User) error
}

type avatarService struct {
  log       *logger.Logger
  avatarDir string
}

func NewAvatarService(log *logger.Logger, avatarDir string) (AvatarService, error) {
  serviceLog := log.With("service", "AvatarService")
  if err := os.MkdirAll(avatarDir, 0o755); err != nil {
    return nil, fmt.Errorf("Failed to create avatar directory: %w", err)
  }
  return &avatarService{log: serviceLog, avatarDir: avatarDir}, nil
}

func (av *avatarService) CreateUserAvatar(ctx context.Context, user *types.User) error {
  if user == nil {
    return fmt.Errorf("No user given, cannot render avatar")
  }

  initials := userInitials(user)
  bg := avatarPalette[int(user.ID.ID())%len(avatarPalette)]

  fnt, err := truetype.Parse(goregular.TTF)
  if err != nil {
    return fmt.Errorf("Failed to parse avatar font: %w", err)
  }
  face := truetype.NewFace(fnt, &truetype.Options{Size: avatarSize * 0.42})

  dc := gg.NewContext(avatarSize, avatarSize)
  dc.SetColor(bg)
  dc.Clear()
  dc.SetFontFace(face)
  dc.SetRGB(1, 1, 1)
  dc.DrawStringAnchored(initials, avatarSize/2, avatarSize/2, 0.5, 0.5)

  path := filepath.Join(av.avatarDir, user.ID.String()+".png")
  if err := dc.SavePNG(path); err != nil {
    return fmt.Errorf("Failed to save avatar png: %w", err)
  }

  user.AvatarPath = path
  av.log.Debug("Rendered user avatar", "user_id", user.ID, "path", path)
  return nil
}

func userInitials(user *types.User) string {
  initials := ""
  if first := strings.TrimSpace(user.FirstName); first != "" {
    initials += strings.ToUpper(first[:1])
  }
  if last := strings.TrimSpace(user.LastName); last != "" {
    initials += strings.ToUpper(last[:1])
  }
  if initials == "" {
    initials = "?"
  }
  return initials
}
