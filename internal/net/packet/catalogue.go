package packet

func handshakeIn(op byte, t Type, f Framing) Entry {
	return Entry{ID: ID{Opcode: op, Stage: StageHandshake, Direction: Serverbound}, Type: t, Framing: f}
}

func handshakeOut(op byte, t Type, f Framing) Entry {
	return Entry{ID: ID{Opcode: op, Stage: StageHandshake, Direction: Clientbound}, Type: t, Framing: f}
}

func gameIn(op byte, t Type, f Framing) Entry {
	return Entry{ID: ID{Opcode: op, Stage: StageGameplay, Direction: Serverbound}, Type: t, Framing: f}
}

func gameOut(op byte, t Type, f Framing) Entry {
	return Entry{ID: ID{Opcode: op, Stage: StageGameplay, Direction: Clientbound}, Type: t, Framing: f}
}

// Catalogue returns the opcode table of client build 317.
func Catalogue() []Entry {
	return []Entry{
		handshakeIn(14, TypeHandshakeHello, Fixed(1)),
		handshakeIn(15, TypeUpdateRequest, None),
		handshakeIn(16, TypeLoginRequest, VarByte),
		handshakeIn(18, TypeReconnectRequest, VarByte),

		handshakeOut(0, TypeHandshakeResponse, Fixed(16)),
		handshakeOut(2, TypeLoginAccepted, Fixed(2)),
		handshakeOut(3, TypeLoginInvalidCredentials, Fixed(0)),
		handshakeOut(4, TypeLoginAccountDisabled, Fixed(0)),
		handshakeOut(5, TypeLoginAlreadyOnline, Fixed(0)),
		handshakeOut(6, TypeLoginGameUpdated, Fixed(0)),
		handshakeOut(7, TypeLoginServerFull, Fixed(0)),
		handshakeOut(8, TypeLoginServerOffline, Fixed(0)),

		gameIn(0, TypeKeepAlive, Fixed(0)),
		gameIn(3, TypeFocusChange, Fixed(1)),
		gameIn(4, TypePublicChat, VarByte),
		gameIn(241, TypeMouseClick, Fixed(4)),
		gameIn(86, TypeCameraMove, Fixed(4)),
		gameIn(210, TypeRegionChange, Fixed(4)),
		gameIn(121, TypeRegionLoaded, Fixed(0)),
		gameIn(164, TypeWalkHere, VarByte),
		gameIn(248, TypeMinimapWalk, VarByte),
		gameIn(98, TypeWalkOnCommand, VarByte),
		gameIn(101, TypeCharacterDesign, Fixed(13)),
		gameIn(103, TypeCommand, VarByte),
		gameIn(185, TypeButtonClick, Fixed(2)),
		gameIn(130, TypeCloseInterface, Fixed(0)),
		gameIn(40, TypeDialogueContinue, Fixed(2)),
		gameIn(41, TypeEquipItem, Fixed(6)),
		gameIn(122, TypeItemOption1, Fixed(6)),
		gameIn(87, TypeDropItem, Fixed(6)),
		gameIn(214, TypeMoveItem, Fixed(7)),
		gameIn(236, TypePickupItem, Fixed(6)),
		gameIn(155, TypeNpcOption1, Fixed(2)),
		gameIn(132, TypeObjectOption1, Fixed(6)),
		gameIn(188, TypeAddFriend, Fixed(8)),
		gameIn(215, TypeRemoveFriend, Fixed(8)),
		gameIn(133, TypeAddIgnore, Fixed(8)),
		gameIn(74, TypeRemoveIgnore, Fixed(8)),
		gameIn(126, TypePrivateMessage, VarByte),
		gameIn(95, TypePrivacyOptions, Fixed(3)),
		gameIn(218, TypeReportAbuse, Fixed(10)),

		gameOut(249, TypeInitializePlayer, Fixed(3)),
		gameOut(73, TypeLoadMapRegion, Fixed(4)),
		gameOut(81, TypePlayerSynchronization, VarShort),
		gameOut(65, TypeNpcSynchronization, VarShort),
		gameOut(253, TypeGameMessage, VarByte),
		gameOut(71, TypeSidebarInterface, Fixed(3)),
		gameOut(134, TypeUpdateSkill, Fixed(6)),
		gameOut(36, TypeConfigSmall, Fixed(3)),
		gameOut(87, TypeConfigLarge, Fixed(6)),
		gameOut(126, TypeSetInterfaceText, VarShort),
		gameOut(97, TypeOpenInterface, Fixed(2)),
		gameOut(219, TypeCloseInterfaces, Fixed(0)),
		gameOut(53, TypeUpdateItemContainer, VarShort),
		gameOut(110, TypeRunEnergy, Fixed(1)),
		gameOut(104, TypePlayerOption, VarByte),
		gameOut(221, TypeFriendServerStatus, Fixed(1)),
		gameOut(50, TypeFriendStatus, Fixed(9)),
		gameOut(196, TypePrivateMessageReceived, VarByte),
		gameOut(109, TypeLogout, Fixed(0)),
		gameOut(114, TypeSystemUpdate, Fixed(2)),
		gameOut(206, TypeChatSettings, Fixed(3)),
	}
}
