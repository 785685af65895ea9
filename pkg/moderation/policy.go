// Package moderation holds the permission and role hierarchy rules shared by
// the moderation commands. Everything here is pure; callers gather ranks and
// permission sets from Discord and turn verdicts into replies.
package moderation

import (
	"github.com/bwmarrin/discordgo"
)

// Verdict is the outcome of a policy check.
type Verdict int

const (
	Allowed Verdict = iota
	InvokerMissingPermission
	BotMissingPermission
	SelfTarget
	OwnerTarget
	BotOutranked
	InvokerOutranked
	RoleAboveBot
	OverwriteAboveBot
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case InvokerMissingPermission:
		return "invoker_missing_permission"
	case BotMissingPermission:
		return "bot_missing_permission"
	case SelfTarget:
		return "self_target"
	case OwnerTarget:
		return "owner_target"
	case BotOutranked:
		return "bot_outranked"
	case InvokerOutranked:
		return "invoker_outranked"
	case RoleAboveBot:
		return "role_above_bot"
	case OverwriteAboveBot:
		return "overwrite_above_bot"
	default:
		return "unknown"
	}
}

// HasPermission reports whether perms grants need. Administrator grants everything.
func HasPermission(perms, need int64) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&need == need
}

// HighestPosition returns the highest position among roleIDs, or 0 (the
// @everyone position) when the member holds no known role.
func HighestPosition(roleIDs []string, guildRoles []*discordgo.Role) int {
	positions := make(map[string]int, len(guildRoles))
	for _, r := range guildRoles {
		positions[r.ID] = r.Position
	}

	highest := 0
	for _, id := range roleIDs {
		if p, ok := positions[id]; ok && p > highest {
			highest = p
		}
	}
	return highest
}

// MemberAction describes a ban, kick or mute about to be applied.
type MemberAction struct {
	Required int64

	InvokerID    string
	InvokerPerms int64
	InvokerRank  int

	BotPerms int64
	BotRank  int

	TargetID   string
	TargetRank int
	// TargetInGuild is false when the target is not a member, in which case
	// there is no rank to compare against.
	TargetInGuild bool

	OwnerID string
}

// CheckMemberAction applies the shared moderation rules in order.
func CheckMemberAction(a MemberAction) Verdict {
	switch {
	case !HasPermission(a.InvokerPerms, a.Required):
		return InvokerMissingPermission
	case !HasPermission(a.BotPerms, a.Required):
		return BotMissingPermission
	case a.TargetID == a.InvokerID:
		return SelfTarget
	case a.OwnerID != "" && a.TargetID == a.OwnerID:
		return OwnerTarget
	}

	if !a.TargetInGuild {
		return Allowed
	}
	if a.BotRank <= a.TargetRank {
		return BotOutranked
	}
	if a.InvokerID != a.OwnerID && a.InvokerRank <= a.TargetRank {
		return InvokerOutranked
	}
	return Allowed
}

// RoleAction describes granting or revoking a role.
type RoleAction struct {
	InvokerPerms int64
	BotPerms     int64
	BotRank      int

	RolePosition int
	RoleManaged  bool

	TargetID   string
	TargetRank int
	OwnerID    string
}

// CheckRoleAction requires an administrator invoker and a bot that can
// manage roles and outranks both the role and the member.
func CheckRoleAction(a RoleAction) Verdict {
	switch {
	case a.InvokerPerms&discordgo.PermissionAdministrator == 0:
		return InvokerMissingPermission
	case !HasPermission(a.BotPerms, discordgo.PermissionManageRoles):
		return BotMissingPermission
	case a.RoleManaged || a.RolePosition >= a.BotRank:
		return RoleAboveBot
	case a.OwnerID != "" && a.TargetID == a.OwnerID:
		return BotOutranked
	case a.TargetRank >= a.BotRank:
		return BotOutranked
	}
	return Allowed
}

// LockCheck describes the channel a lockdown would edit.
type LockCheck struct {
	BotRank    int
	GuildID    string
	Overwrites []*discordgo.PermissionOverwrite
	GuildRoles []*discordgo.Role
}

// CheckManageChannels gates lockdown and unlock: both the invoker and the
// bot need Manage Channels.
func CheckManageChannels(invokerPerms, botPerms int64) Verdict {
	if !HasPermission(invokerPerms, discordgo.PermissionManageChannels) {
		return InvokerMissingPermission
	}
	if !HasPermission(botPerms, discordgo.PermissionManageChannels) {
		return BotMissingPermission
	}
	return Allowed
}

// CheckLockdown refuses when a role overwrite on the channel belongs to a
// role ranked at or above the bot. The blocking role is returned with the verdict.
func CheckLockdown(c LockCheck) (Verdict, *discordgo.Role) {
	roles := make(map[string]*discordgo.Role, len(c.GuildRoles))
	for _, r := range c.GuildRoles {
		roles[r.ID] = r
	}
	for _, o := range c.Overwrites {
		if o.Type != discordgo.PermissionOverwriteTypeRole || o.ID == c.GuildID {
			continue
		}
		if r, ok := roles[o.ID]; ok && r.Position >= c.BotRank {
			return OverwriteAboveBot, r
		}
	}
	return Allowed, nil
}

// LockBits are the @everyone capabilities lockdown removes.
const LockBits = discordgo.PermissionSendMessages | discordgo.PermissionAddReactions

// LockedOverwrite returns the allow and deny sets for a locked channel,
// keeping every unrelated bit of the current overwrite.
func LockedOverwrite(current *discordgo.PermissionOverwrite) (allow, deny int64) {
	if current != nil {
		allow, deny = current.Allow, current.Deny
	}
	return allow &^ LockBits, deny | LockBits
}

// UnlockedOverwrite resets the lock bits to neutral.
func UnlockedOverwrite(current *discordgo.PermissionOverwrite) (allow, deny int64) {
	if current != nil {
		allow, deny = current.Allow, current.Deny
	}
	return allow &^ LockBits, deny &^ LockBits
}

// FindOverwrite returns the overwrite targeting id.
func FindOverwrite(overwrites []*discordgo.PermissionOverwrite, id string) *discordgo.PermissionOverwrite {
	for _, o := range overwrites {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// IsTextBased reports whether messages can be sent in a channel of type t.
func IsTextBased(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice,
		discordgo.ChannelTypeGuildNewsThread, discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM:
		return true
	}
	return false
}
