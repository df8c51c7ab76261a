package cli

func init() {
	regCommands()
}

func regCommands() {
	//Identity
	identityCmd.AddCommand(identity_createCmd)
	identityCmd.AddCommand(identity_showCmd)

	//Root
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(tokenCmd)
}
