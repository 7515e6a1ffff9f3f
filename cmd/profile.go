package cmd

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/LawAgent/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage backend profiles",
	Long:  `Manage profiles for different backends and speech settings.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Fprintln(out, "Available Profiles:")
		for _, name := range cfg.ProfileNames() {
			profile := cfg.Profiles[name]
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Fprintf(out, "  %s%s\n", name, marker)
			fmt.Fprintf(out, "    Base URL: %s\n", profile.BaseURL)
			fmt.Fprintf(out, "    Voice: %s\n", keyState(profile.OpenAIAPIKey, "configured", "off"))
			fmt.Fprintln(out)
		}
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName := args[0]
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			return fmt.Errorf("profile '%s' does not exist", profileName)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Profile: %s\n", profileName)
		fmt.Fprintf(out, "Base URL: %s\n", profile.BaseURL)
		fmt.Fprintf(out, "Landing view: %s\n", profile.LandingView)
		fmt.Fprintf(out, "Auto-submit voice: %t\n", profile.AutoSubmitVoice)
		fmt.Fprintf(out, "Request timeout: %ds\n", profile.RequestTimeoutSecs)
		fmt.Fprintf(out, "OpenAI API Key: %s\n", keyState(profile.OpenAIAPIKey, "Set (hidden for security)", "Not set"))
		fmt.Fprintf(out, "Speech model: %s\n", profile.SpeechModel)
		if profile.AudioSource != "" {
			fmt.Fprintf(out, "Audio source: %s\n", profile.AudioSource)
		}
		return nil
	},
}

func keyState(key, set, unset string) string {
	if key == "" {
		return unset
	}
	return set
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Prompt{
				Label: "Profile name",
			}
			var err error
			profileName, err = prompt.Run()
			if err != nil {
				return fmt.Errorf("prompt failed: %w", err)
			}
		}

		if _, exists := cfg.Profiles[profileName]; exists {
			return fmt.Errorf("profile '%s' already exists", profileName)
		}

		profile, err := promptProfile(config.DefaultProfile())
		if err != nil {
			return err
		}
		cfg.Profiles[profileName] = profile

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' added successfully!\n", profileName)
		return nil
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, err := pickProfile(args, "Select profile to edit", "")
		if err != nil {
			return err
		}

		profile, exists := cfg.Profiles[profileName]
		if !exists {
			return fmt.Errorf("profile '%s' does not exist", profileName)
		}

		profile, err = promptProfile(profile)
		if err != nil {
			return err
		}
		cfg.Profiles[profileName] = profile

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' updated successfully!\n", profileName)
		return nil
	},
}

// promptProfile asks for the editable fields, using current as defaults.
func promptProfile(current config.Profile) (config.Profile, error) {
	profile := current

	baseURLPrompt := promptui.Prompt{
		Label:   "Backend URL",
		Default: current.BaseURL,
	}
	baseURL, err := baseURLPrompt.Run()
	if err != nil {
		return profile, fmt.Errorf("prompt failed: %w", err)
	}
	profile.BaseURL = baseURL

	apiKeyPrompt := promptui.Prompt{
		Label:   "OpenAI API Key for voice (optional)",
		Default: current.OpenAIAPIKey,
		Mask:    '*',
	}
	profile.OpenAIAPIKey, err = apiKeyPrompt.Run()
	if err != nil {
		return profile, fmt.Errorf("prompt failed: %w", err)
	}

	timeoutPrompt := promptui.Prompt{
		Label:   "Request timeout in seconds (0 for none)",
		Default: strconv.Itoa(current.RequestTimeoutSecs),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return fmt.Errorf("enter a non-negative number")
			}
			return nil
		},
	}
	timeout, err := timeoutPrompt.Run()
	if err != nil {
		return profile, fmt.Errorf("prompt failed: %w", err)
	}
	profile.RequestTimeoutSecs, _ = strconv.Atoi(timeout)

	autoSubmit := promptui.Select{
		Label: "Submit voice commands automatically",
		Items: []string{"yes", "no"},
	}
	if !current.AutoSubmitVoice {
		autoSubmit.CursorPos = 1
	}
	_, choice, err := autoSubmit.Run()
	if err != nil {
		return profile, fmt.Errorf("selection failed: %w", err)
	}
	profile.AutoSubmitVoice = choice == "yes"

	return profile, nil
}

// pickProfile returns args[0] or lets the user choose, leaving out exclude.
func pickProfile(args []string, label, exclude string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	profileNames := make([]string, 0, len(cfg.Profiles))
	for _, name := range cfg.ProfileNames() {
		if name != exclude {
			profileNames = append(profileNames, name)
		}
	}
	if len(profileNames) == 0 {
		return "", fmt.Errorf("no profiles available")
	}

	prompt := promptui.Select{
		Label: label,
		Items: profileNames,
	}
	_, profileName, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection failed: %w", err)
	}
	return profileName, nil
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, err := pickProfile(args, "Select profile to delete", "")
		if err != nil {
			return err
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'? (y/N)", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
			return nil
		}

		if err := cfg.Delete(profileName); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' deleted successfully!\n", profileName)
		return nil
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, err := pickProfile(args, "Select profile to switch to", cfg.ActiveProfile)
		if err != nil {
			return err
		}

		if err := cfg.Use(profileName); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile '%s'\n", profileName)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}
