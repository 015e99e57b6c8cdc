package main

// Provider blank imports. Each import activates a self-registering alert
// notifier.

import (
	_ "github.com/Strob0t/OnboardForge/internal/adapter/discord"
	_ "github.com/Strob0t/OnboardForge/internal/adapter/slack"
)
