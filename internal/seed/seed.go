// Package seed fills a fresh marketplace with demo accounts, products and
// purchases. It goes through the same services as the API, so every product
// gets a real artifact and thumbnail.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/media"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/service"
)

// Defaults match the demo dataset clients were tested against.
const (
	DefaultUsers         = 15
	DefaultProducts      = 20
	DefaultPurchaseRatio = 0.6
	DefaultPassword      = "123456"
)

type Options struct {
	Users         int
	Products      int
	PurchaseRatio float64 // share of non-creators that buy each product
	Password      string
	PhotoDir      string // optional; images are generated when empty
	Seed          uint64
	Workers       int
}

func (o *Options) normalize() error {
	switch {
	case o.Users < 1:
		return errors.New("seed: at least one user is required")
	case o.Products < 0:
		return errors.New("seed: product count must not be negative")
	case o.PurchaseRatio < 0 || o.PurchaseRatio > 1:
		return fmt.Errorf("seed: purchase ratio %.2f outside [0, 1]", o.PurchaseRatio)
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	if o.Workers < 1 {
		o.Workers = 4
	}
	return nil
}

// Result counts what was actually created.
type Result struct {
	Users     int
	Products  int
	Purchases int
}

type Seeder struct {
	accounts  *service.AccountService
	products  *service.ProductService
	purchases *service.PurchaseService
	logger    *slog.Logger
}

func New(accounts *service.AccountService, products *service.ProductService, purchases *service.PurchaseService, logger *slog.Logger) *Seeder {
	return &Seeder{accounts: accounts, products: products, purchases: purchases, logger: logger}
}

var adjectives = []string{
	"Magnificent", "Beautiful", "Astonishing", "Mesmerizing", "Enchanted",
	"Stunning", "Incredible", "Delightful", "Divine", "Unforgettable",
	"Fantastic", "Exclusive", "Unique", "Rare", "Precious", "Elegant",
	"Graceful", "Perfect", "Peerless", "Luminous",
}

// productPlan is decided up front so the random source is only touched from
// one goroutine.
type productPlan struct {
	creator int
	title   string
	price   int64
	image   func() ([]byte, error)
}

// Run creates opts.Users accounts, opts.Products products and the purchases.
//
// Accounts that already exist are logged into instead, so running the
// seeder twice against the same database is harmless. Failed products are
// logged and skipped.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	users, err := s.createUsers(ctx, opts)
	if err != nil {
		return nil, err
	}

	plans, err := planProducts(rng, opts, len(users))
	if err != nil {
		return nil, err
	}
	products := s.createProducts(ctx, opts, users, plans)

	purchases := 0
	for _, p := range products {
		buyers := pickBuyers(rng, users, p.CreatorID, opts.PurchaseRatio)
		for _, buyer := range buyers {
			_, created, err := s.purchases.Buy(ctx, buyer.ID, p.ID)
			if err != nil {
				return nil, fmt.Errorf("seed: purchase %s → %s: %w", buyer.Nickname, p.Title, err)
			}
			if created {
				purchases++
			}
		}
	}

	res := &Result{Users: len(users), Products: len(products), Purchases: purchases}
	s.logger.Info("seeding finished",
		slog.Int("users", res.Users),
		slog.Int("products", res.Products),
		slog.Int("purchases", res.Purchases),
	)
	return res, nil
}

func (s *Seeder) createUsers(ctx context.Context, opts Options) ([]*model.Account, error) {
	users := make([]*model.Account, opts.Users)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range users {
		g.Go(func() error {
			nickname := fmt.Sprintf("artist_%d", i+1)
			res, err := s.accounts.Register(ctx, nickname, nickname+"@gallery.com", opts.Password)
			if errors.Is(err, apperror.ErrDuplicateAccount) {
				res, err = s.accounts.Login(ctx, nickname, opts.Password)
			}
			if err != nil {
				return fmt.Errorf("seed: user %s: %w", nickname, err)
			}
			users[i] = res.Profile.Account
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) createProducts(ctx context.Context, opts Options, users []*model.Account, plans []productPlan) []model.Product {
	var (
		mu       sync.Mutex
		products []model.Product
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, plan := range plans {
		g.Go(func() error {
			data, err := plan.image()
			if err != nil {
				s.logger.Warn("skipping product: image unavailable",
					slog.String("title", plan.title),
					slog.String("error", err.Error()),
				)
				return nil
			}

			p, err := s.products.Create(ctx, service.CreateProductInput{
				CreatorID:   users[plan.creator].ID,
				Title:       plan.title,
				Price:       plan.price,
				Description: "A wonderful work of art",
				Image:       data,
			})
			if err != nil {
				s.logger.Warn("skipping product",
					slog.String("title", plan.title),
					slog.String("error", err.Error()),
				)
				return nil
			}

			mu.Lock()
			products = append(products, *p)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never fail; skipped products are logged

	return products
}

func planProducts(rng *rand.Rand, opts Options, users int) ([]productPlan, error) {
	var photos []string
	if opts.PhotoDir != "" {
		var err error
		photos, err = listPhotos(opts.PhotoDir)
		if err != nil {
			return nil, err
		}
		if len(photos) < opts.Products {
			// One product per photo, like an upload of each file.
			opts.Products = len(photos)
		}
		rng.Shuffle(len(photos), func(i, j int) { photos[i], photos[j] = photos[j], photos[i] })
	}

	plans := make([]productPlan, opts.Products)
	for i := range plans {
		adjective := adjectives[rng.IntN(len(adjectives))]
		plan := productPlan{
			creator: rng.IntN(users),
			price:   int64(100 + rng.IntN(1901)),
		}

		if photos != nil {
			path := photos[i]
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			plan.title = adjective + " " + name
			plan.image = func() ([]byte, error) { return os.ReadFile(path) }
		} else {
			size := generatedSizes[rng.IntN(len(generatedSizes))]
			format := generatedFormats[i%len(generatedFormats)]
			hue := rng.Float64()
			plan.title = fmt.Sprintf("%s Study No. %d", adjective, i+1)
			plan.image = func() ([]byte, error) { return generate(size.X, size.Y, hue, format) }
		}
		plans[i] = plan
	}
	return plans, nil
}

func listPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("seed: reading photo dir: %w", err)
	}
	var photos []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(e.Name())), ".")
		if ext == "jpeg" {
			ext = "jpg"
		}
		if _, ok := media.FormatForExtension(ext); ok {
			photos = append(photos, filepath.Join(dir, e.Name()))
		}
	}
	if len(photos) == 0 {
		return nil, fmt.Errorf("seed: no images in %s", dir)
	}
	return photos, nil
}

// pickBuyers returns int((users-1) * ratio) distinct accounts other than the creator.
func pickBuyers(rng *rand.Rand, users []*model.Account, creatorID string, ratio float64) []*model.Account {
	var candidates []*model.Account
	for _, u := range users {
		if u.ID != creatorID {
			candidates = append(candidates, u)
		}
	}
	n := min(int(float64(len(users)-1)*ratio), len(candidates))
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	return candidates[:n]
}

// Sizes cover each thumbnail bucket: small, medium and large.
var generatedSizes = []image.Point{{640, 480}, {1400, 1000}, {2400, 1600}}

var generatedFormats = []imaging.Format{imaging.JPEG, imaging.PNG}

// generate paints a diagonal two-colour gradient.
func generate(w, h int, hue float64, format imaging.Format) ([]byte, error) {
	from := hueColor(hue)
	to := hueColor(hue + 0.5)

	img := imaging.New(w, h, from)
	for y := range h {
		for x := range w {
			t := float64(x+y) / float64(w+h)
			img.SetNRGBA(x, y, color.NRGBA{
				R: lerp(from.R, to.R, t),
				G: lerp(from.G, to.G, t),
				B: lerp(from.B, to.B, t),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("seed: encoding generated image: %w", err)
	}
	return buf.Bytes(), nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// hueColor maps h (wrapped to [0,1)) onto a saturated RGB colour.
func hueColor(h float64) color.NRGBA {
	h -= float64(int(h))
	seg := int(h * 6)
	f := h*6 - float64(seg)
	up := uint8(255 * f)
	down := uint8(255 * (1 - f))
	switch seg {
	case 0:
		return color.NRGBA{R: 255, G: up, B: 0, A: 255}
	case 1:
		return color.NRGBA{R: down, G: 255, B: 0, A: 255}
	case 2:
		return color.NRGBA{R: 0, G: 255, B: up, A: 255}
	case 3:
		return color.NRGBA{R: 0, G: down, B: 255, A: 255}
	case 4:
		return color.NRGBA{R: up, G: 0, B: 255, A: 255}
	default:
		return color.NRGBA{R: 255, G: 0, B: down, A: 255}
	}
}
