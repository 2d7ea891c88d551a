package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/UniPay/internal/checkout/application"
	"github.com/dmehra2102/UniPay/internal/checkout/domain"
	checkouthttp "github.com/dmehra2102/UniPay/internal/checkout/infrastructure/http"
	"github.com/dmehra2102/UniPay/internal/checkout/infrastructure/methodstore"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/logging"
	"github.com/dmehra2102/UniPay/pkg/shutdown"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", env("UNIPAY_API", "http://localhost:5000/api"), "UniPay API base URL including prefix")
	userFile := flag.String("user", "authUser.json", "path to the signed-in user record")
	method := flag.String("method", "", "payment method: fiat or crypto (defaults to the session's saved choice)")
	session := flag.String("session", "default", "session key used to remember the payment method")
	holder := flag.String("holder", "", "payment source holder id (defaults to the user id)")
	yes := flag.Bool("yes", false, "confirm without prompting")
	flag.Parse()

	log := logging.NewWithLevel(env("LOG_LEVEL", "warn"))

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	user, err := loadIdentity(*userFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Please sign in first:", err)
		os.Exit(1)
	}

	var methods application.MethodStore = methodstore.NewMemory()
	if addr := env("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		methods = methodstore.NewRedis(rdb, methodstore.DefaultTTL)
	}

	client := checkouthttp.NewClient(log, *apiURL)
	s := application.NewSession(application.Deps{
		Catalog:  client,
		Pricer:   client,
		Registry: client,
		Recorder: client,
		Methods:  methods,
		Logger:   log,
	}, user, *session)

	holderID := *holder
	if holderID == "" {
		holderID = user.ID
	}
	c := &cli{s: s, out: os.Stdout, in: bufio.NewReader(os.Stdin), yes: *yes}
	if err := c.run(ctx, *method, holderID); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

type cli struct {
	s   *application.Session
	out io.Writer
	in  *bufio.Reader
	yes bool
}

func (c *cli) run(ctx context.Context, method, holderID string) error {
	if method != "" {
		if err := c.s.SelectMethod(ctx, method); err != nil {
			return err
		}
	} else {
		m, ok, err := c.s.Resume(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validation("Choose a payment method with -method fiat or -method crypto.")
		}
		fmt.Fprintf(c.out, "Resuming with %s payment.\n", m)
	}

	if err := c.s.LoadInstruments(ctx, holderID); err != nil {
		return err
	}
	summary, err := c.s.LoadSummary(ctx)
	if err != nil {
		return err
	}
	c.printSummary(summary)

	snap := c.s.Snapshot()
	if err := c.pickSource(snap); err != nil {
		return err
	}
	if !c.ask("Confirm payment?") {
		fmt.Fprintln(c.out, "Cancelled.")
		return c.s.Reset(ctx, false)
	}

	rec, err := c.s.Confirm(ctx)
	for err != nil && errors.Is(err, application.ErrPaymentFailed) {
		fmt.Fprintln(c.out, userMessage(err))
		if !c.ask("Retry?") {
			return err
		}
		rec, err = c.s.Retry(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Payment complete. You earned %d reward tokens.\n", rec.RewardTokens)
	fmt.Fprintf(c.out, "Purchase %s, reward %s\n", rec.PurchaseID, rec.RewardID)
	return nil
}

func (c *cli) printSummary(s domain.Summary) {
	fmt.Fprintln(c.out, "Order summary")
	fmt.Fprintf(c.out, "  Item:      %s\n", s.ItemName)
	fmt.Fprintf(c.out, "  Merchant:  %s\n", s.MerchantName)
	if s.ExchangeRate != nil {
		fmt.Fprintf(c.out, "  Price:     %.4f %s (1 %s = $%.2f)\n", s.ChargedAmount(), domain.CryptoAsset, domain.CryptoAsset, *s.ExchangeRate)
	} else {
		fmt.Fprintf(c.out, "  Price:     $%.2f\n", s.ChargedAmount())
	}
	fmt.Fprintf(c.out, "  Discount:  %.0f%% (total after discount %.4f)\n", s.DiscountPercent, s.DisplayTotal())
	fmt.Fprintf(c.out, "  Rewards:   %d tokens\n", s.RewardTokens())
}

// pickSource selects the first saved card, then the first bank. Checkout
// proceeds without a selection when the user has none.
func (c *cli) pickSource(snap application.Snapshot) error {
	switch {
	case len(snap.Cards) > 0:
		card := snap.Cards[0]
		fmt.Fprintf(c.out, "Paying with card %s (%s)\n", card.MaskedNumber, card.DisplayName)
		return c.s.SelectInstrument(application.InstrumentRef{Kind: application.KindCard, ID: card.ID})
	case len(snap.Banks) > 0:
		bank := snap.Banks[0]
		fmt.Fprintf(c.out, "Paying with %s account %s\n", bank.BankName, bank.MaskedAccountNumber)
		return c.s.SelectInstrument(application.InstrumentRef{Kind: application.KindBank, ID: bank.ID})
	default:
		fmt.Fprintln(c.out, "No saved payment sources.")
		return nil
	}
}

func (c *cli) ask(prompt string) bool {
	if c.yes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, _ := c.in.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func loadIdentity(path string) (domain.Identity, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Identity{}, err
	}
	var id domain.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("%s: %w", path, err)
	}
	if !id.Valid() {
		return domain.Identity{}, fmt.Errorf("%s: missing id or email", path)
	}
	return id, nil
}

func userMessage(err error) string {
	if errors.Is(err, application.ErrPaymentFailed) {
		return application.ErrPaymentFailed.Error()
	}
	return apperr.Message(err, err.Error())
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
