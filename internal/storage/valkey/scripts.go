package valkey

import "github.com/valkey-io/valkey-go"

// KEYS: project, objects, order, shared_with
var getProjectScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
return {
	redis.call('HGETALL', KEYS[1]),
	redis.call('HGETALL', KEYS[2]),
	redis.call('LRANGE', KEYS[3], 0, -1),
	redis.call('SMEMBERS', KEYS[4])
}`)

// KEYS: project, objects, order. ARGV: objectID, payload, updatedAt.
// Returns 1 appended, 0 unknown project, -1 duplicate id.
var appendObjectScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
if redis.call('HSETNX', KEYS[2], ARGV[1], ARGV[2]) == 0 then return -1 end
redis.call('RPUSH', KEYS[3], ARGV[1])
redis.call('HSET', KEYS[1], 'updatedAt', ARGV[3])
return 1`)

// KEYS: project, objects. ARGV: objectID, payload, updatedAt, only kind.
var replaceObjectScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local cur = redis.call('HGET', KEYS[2], ARGV[1])
if not cur then return 0 end
if ARGV[4] ~= '' and cjson.decode(cur)['type'] ~= ARGV[4] then return 0 end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[1], 'updatedAt', ARGV[3])
return 1`)

// KEYS: project, objects, order. ARGV: objectID, updatedAt, only kind.
var removeObjectScript = valkey.NewLuaScript(`
local cur = redis.call('HGET', KEYS[2], ARGV[1])
if not cur then return 0 end
if ARGV[3] ~= '' and cjson.decode(cur)['type'] ~= ARGV[3] then return 0 end
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('LREM', KEYS[3], 0, ARGV[1])
redis.call('HSET', KEYS[1], 'updatedAt', ARGV[2])
return 1`)

// KEYS: project. ARGV: camera json, updatedAt.
var replaceCameraScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], 'camera', ARGV[1], 'updatedAt', ARGV[2])
return 1`)

// KEYS: project, objects, order. ARGV: updatedAt, then id/payload pairs.
var replaceObjectsScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('DEL', KEYS[2], KEYS[3])
for i = 2, #ARGV, 2 do
	redis.call('HSET', KEYS[2], ARGV[i], ARGV[i + 1])
	redis.call('RPUSH', KEYS[3], ARGV[i])
end
redis.call('HSET', KEYS[1], 'updatedAt', ARGV[1])
return 1`)

// KEYS: project, shared_with. ARGV: ownerID, shared, clear, updatedAt.
var setSharingScript = valkey.NewLuaScript(`
if ARGV[1] == '' or redis.call('HGET', KEYS[1], 'ownerId') ~= ARGV[1] then return 0 end
redis.call('HSET', KEYS[1], 'shared', ARGV[2], 'updatedAt', ARGV[4])
if ARGV[3] == '1' then redis.call('DEL', KEYS[2]) end
return 1`)

// KEYS: project, objects, order, shared_with. Returns the owner id, or
// false when the project does not exist.
var deleteProjectScript = valkey.NewLuaScript(`
local owner = redis.call('HGET', KEYS[1], 'ownerId')
if not owner then return false end
redis.call('DEL', KEYS[1], KEYS[2], KEYS[3], KEYS[4])
return owner`)

// KEYS: by_name, user. ARGV: id, name, color, createdAt.
// Returns 0 when the name is taken.
var createUserScript = valkey.NewLuaScript(`
if redis.call('HSETNX', KEYS[1], ARGV[2], ARGV[1]) == 0 then return 0 end
redis.call('HSET', KEYS[2], 'id', ARGV[1], 'name', ARGV[2], 'color', ARGV[3], 'createdAt', ARGV[4])
return 1`)

// updateUser returns 0 for an unknown user and -1 when the new name is taken.
var updateUserScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then return 0 end
if ARGV[2] ~= '' then
  local old = redis.call('HGET', KEYS[2], 'name')
  if old ~= ARGV[2] then
    if redis.call('HSETNX', KEYS[1], ARGV[2], ARGV[1]) == 0 then return -1 end
    redis.call('HDEL', KEYS[1], old)
    redis.call('HSET', KEYS[2], 'name', ARGV[2])
  end
end
if ARGV[3] ~= '' then redis.call('HSET', KEYS[2], 'color', ARGV[3]) end
return 1`)

var deleteUserScript = valkey.NewLuaScript(`
local name = redis.call('HGET', KEYS[2], 'name')
if not name then return 0 end
redis.call('HDEL', KEYS[1], name)
redis.call('DEL', KEYS[2])
return 1`)
