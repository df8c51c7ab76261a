package cli

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tcfw/didkms/internal/config"
	"github.com/tcfw/didkms/internal/storage"
	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/keys"
	pkgStorage "github.com/tcfw/didkms/pkg/storage"
)

var (
	identityCmd = &cobra.Command{
		Use:   "identity",
		Short: "Identifier commands",
	}

	identity_createCmd = &cobra.Command{
		Use:   "create <id>",
		Short: "Provision an identifier directly in the configured store",
		Args:  cobra.ExactArgs(1),
		RunE:  runIdentityCreate,
	}

	identity_showCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "Show the public document of an identifier",
		Args:  cobra.ExactArgs(1),
		RunE:  runIdentityShow,
	}
)

func init() {
	identity_createCmd.Flags().String("owner", "", "principal allowed to manage the identifier")
	identity_createCmd.Flags().StringP("alg", "a", string(keys.EdDSA), "signing key algorithm")
	identity_createCmd.Flags().StringP("curve", "c", string(keys.Ed25519), "signing key curve")
	identity_createCmd.Flags().IntP("size", "s", 0, "signing key size (RSA)")
	identity_createCmd.Flags().String("agreement-curve", "", "also provision a key agreement key on this curve")
	identity_createCmd.MarkFlagRequired("owner")

	identity_showCmd.Flags().Bool("keys", false, "list key metadata instead of the document")
	identity_showCmd.Flags().Bool("history", false, "list every committed document version")
	addClientFlags(identity_showCmd)
}

// keySpec describes one key to provision
type keySpec struct {
	Algorithm keys.Algorithm
	Use       keys.Use
	Size      int
	Curve     keys.Curve
}

// agreementAlgorithm picks the algorithm owning an agreement curve
func agreementAlgorithm(c keys.Curve) keys.Algorithm {
	if c == keys.X25519 {
		return keys.EdDSA
	}
	return keys.ECDSA
}

// createIdentity builds an identifier with the given keys and stores it
func createIdentity(ctx context.Context, store pkgStorage.Store, p keys.Provider, method, id string, owner did.Principal, specs ...keySpec) (*did.Identifier, error) {
	ident, err := did.NewIdentifier(method, id, owner)
	if err != nil {
		return nil, err
	}
	defer ident.Wipe()

	now := time.Now()

	for _, s := range specs {
		kp, err := p.CreateKey(s.Algorithm, s.Use, s.Size, s.Curve)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s key", s.Use)
		}

		if err := ident.Enroll(kp, now); err != nil {
			kp.Wipe()
			return nil, errors.Wrapf(err, "enrolling %s key", s.Use)
		}
	}

	if err := store.Create(ctx, ident); err != nil {
		return nil, errors.Wrap(err, "storing identifier")
	}

	return ident, nil
}

func runIdentityCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	owner, _ := cmd.Flags().GetString("owner")
	algS, _ := cmd.Flags().GetString("alg")
	curveS, _ := cmd.Flags().GetString("curve")
	size, _ := cmd.Flags().GetInt("size")
	agreementS, _ := cmd.Flags().GetString("agreement-curve")

	alg, err := keys.ParseAlgorithm(algS)
	if err != nil {
		return err
	}

	sig := keySpec{Algorithm: alg, Use: keys.Signing, Size: size}
	if alg.UsesCurve() {
		if sig.Curve, err = keys.ParseCurve(curveS); err != nil {
			return err
		}
	}

	specs := []keySpec{sig}

	if agreementS != "" {
		c, err := keys.ParseCurve(agreementS)
		if err != nil {
			return err
		}
		specs = append(specs, keySpec{Algorithm: agreementAlgorithm(c), Use: keys.KeyAgreement, Curve: c})
	}

	store, err := storage.Open(cfg.Storage().Driver, cfg.Storage().Path, 0)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Stop(); err != nil {
			logging.WithError(err).Error("stopping store")
		}
	}()

	g, err := keys.NewGenerator()
	if err != nil {
		return err
	}

	ident, err := createIdentity(ctx, store, g, cfg.DID().Method, args[0], did.Principal(owner), specs...)
	if err != nil {
		return err
	}

	logging.Entry().WithField("id", ident.DocumentID()).Info("created identifier")

	return printJSON(cmd.OutOrStdout(), ident.Document)
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	showKeys, _ := cmd.Flags().GetBool("keys")
	showHistory, _ := cmd.Flags().GetBool("history")

	var out interface{}

	switch {
	case showKeys:
		out, err = c.Keys(ctx, args[0])
	case showHistory:
		out, err = c.History(ctx, args[0])
	default:
		out, err = c.Resolve(ctx, args[0])
	}
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), out)
}
