package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civilshq/civilshq-go/authflow"
	"github.com/civilshq/civilshq-go/civilsapi"
	"github.com/civilshq/civilshq-go/session"
	"github.com/civilshq/civilshq-go/viewgate"
)

func buildRootCmd(a *app, appName string) *cobra.Command {
	root := &cobra.Command{
		Use:           "civilshq",
		Short:         "CivilsHQ platform client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Name() != "help" {
				displayAppname(appName)
			}
		},
	}

	root.AddCommand(
		loginCmd(a),
		signupCmd(a),
		verifyCmd(a),
		resendCmd(a),
		whoamiCmd(a),
		openCmd(a),
		homeCmd(a),
		logoutCmd(a),
	)
	return root
}

func loginCmd(a *app) *cobra.Command {
	var email, password, role string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an aspirant, institution or admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedRole, err := session.ParseRole(role)
			if err != nil {
				return err
			}

			attempt, err := a.controller.Login(cmd.Context(), email, password, parsedRole)
			if err != nil {
				return reportAttempt(attempt, err)
			}
			return reportAttempt(attempt, nil)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&role, "role", string(session.RoleAspirant), "aspirant, institution or admin")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func signupCmd(a *app) *cobra.Command {
	var req civilsapi.SignupRequest
	var profile civilsapi.InstitutionProfile

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Role == session.RoleInstitution.String() {
				req.InstitutionProfile = &profile
			}

			attempt, err := a.controller.Signup(cmd.Context(), req)
			if err != nil {
				return reportAttempt(attempt, err)
			}
			return reportAttempt(attempt, nil)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Role, "role", string(session.RoleAspirant), "aspirant, institution or admin")
	cmd.Flags().StringVar(&profile.InstitutionName, "institution-name", "", "registered institution name")
	cmd.Flags().StringVar(&profile.Address, "address", "", "institution address")
	cmd.Flags().StringVar(&profile.City, "city", "", "institution city")
	cmd.Flags().StringVar(&profile.State, "state", "", "institution state")
	cmd.Flags().StringVar(&profile.Website, "website", "", "institution website")
	cmd.Flags().StringVar(&profile.ContactNumber, "contact", "", "institution contact number")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func verifyCmd(a *app) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Submit the 6-digit verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			attempt, err := a.controller.VerifyCode(cmd.Context(), code)
			if err != nil {
				return reportAttempt(attempt, err)
			}
			return reportAttempt(attempt, nil)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "verification code from your email")
	cmd.MarkFlagRequired("code")
	return cmd
}

func resendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resend",
		Short: "Resend the verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.controller.SendVerificationCode(cmd.Context()); err != nil {
				if remaining := a.controller.ResendCooldownRemaining(); remaining > 0 {
					fmt.Printf("please wait %d seconds before resending\n", int(remaining.Seconds())+1)
				}
				return err
			}
			fmt.Println("verification code sent")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.store.IsAuthenticated() {
				fmt.Println("not logged in")
				return nil
			}

			var me civilsapi.MeResponse
			if err := a.gw.Get(cmd.Context(), "/api/auth/me", &me); err != nil {
				return err
			}
			fmt.Printf("%s <%s> (%s)\n", me.Data.Name, me.Data.Email, me.Data.Role)
			return nil
		},
	}
}

func openCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <route>",
		Short: "Resolve a destination against the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := a.resolver.Resolve(args[0])
			switch decision.Kind {
			case viewgate.DecisionRender:
				fmt.Printf("rendering %s\n", decision.Destination)
			case viewgate.DecisionDashboardRedirect:
				fmt.Printf("redirecting to %s\n", decision.Destination)
			case viewgate.DecisionLoginRedirect:
				fmt.Printf("login required: %s\n", decision.Message)
			}
			return nil
		},
	}
}

func homeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the homepage snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.home.Fetch(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%d institutions, %d aspirants\n", data.InstitutionCount, data.AspirantCount)
			for _, course := range data.FeaturedCourses {
				fmt.Printf("  %s - %s (Rs. %.0f)\n", course.Title, course.InstitutionName, course.Price)
			}
			return nil
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.controller.Logout()
			fmt.Println("logged out")
			return nil
		},
	}
}

// reportAttempt prints the attempt outcome the way the web client surfaces
// it: pending verification moves to the OTP step, failures show the server
// message inline.
func reportAttempt(attempt *authflow.Attempt, err error) error {
	if attempt == nil {
		return err
	}

	switch attempt.State {
	case authflow.StateSuccess:
		fmt.Printf("logged in, landing on %s\n", attempt.Destination)
		return nil
	case authflow.StatePendingVerification:
		fmt.Printf("verification code sent to %s; run `civilshq verify --code <code>`\n", attempt.Email)
		return nil
	case authflow.StateFailed:
		fmt.Printf("failed: %s\n", attempt.FailureMessage)
	}
	return err
}
