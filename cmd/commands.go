package cmd

func init() {
	rootCmd.AddCommand(
		NewActivateCommand(),
		NewDeactivateCommand(),
		NewStatusCommand(),
		NewListCommand(),
		NewLoginCommand(),
		NewLogoutCommand(),
		NewConfigureCommand(),
		NewVersionCommand(),
		NewUpdateCommand(),
	)
}
